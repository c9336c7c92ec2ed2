package domainfilter

// DefaultKeywords is the built-in allowed keyword set covering clothing,
// fashion, and accessories topics. All entries are lowercase.
var DefaultKeywords = []string{
	"clothing",
	"fashion",
	"shopping",
	"accessories",
	"sustainability",
	"shoes",
	"hats",
	"shirts",
	"dresses",
	"pants",
	"jeans",
	"skirts",
	"jackets",
	"coats",
	"t-shirts",
	"sweaters",
	"hoodies",
	"activewear",
	"formal wear",
	"casual wear",
	"sportswear",
	"outerwear",
	"swimwear",
	"underwear",
	"lingerie",
	"socks",
	"scarves",
	"gloves",
	"belts",
	"ties",
	"caps",
	"beanies",
	"boots",
	"sandals",
	"heels",
	"sneakers",
	"materials",
	"cotton",
	"polyester",
	"wool",
	"silk",
	"leather",
	"denim",
	"linen",
	"athleisure",
	"ethnic wear",
	"fashion trends",
	"custom clothing",
	"tailoring",
	"sustainable materials",
	"recycled clothing",
	"fashion brands",
	"streetwear",
}
