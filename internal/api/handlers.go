package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stylora/fashion-nlp/internal/logging"
	"github.com/stylora/fashion-nlp/internal/pipeline"
)

// Handler handles HTTP requests for the NLP API
type Handler struct {
	pipeline *pipeline.Pipeline
	backend  string
	logger   logging.Logger
}

// NewHandler creates a new API handler
func NewHandler(p *pipeline.Pipeline, backend string, logger logging.Logger) *Handler {
	return &Handler{
		pipeline: p,
		backend:  backend,
		logger:   logger,
	}
}

// Root handles GET /
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

// Process handles POST /process/
func (h *Handler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid process request", logging.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: text is required"})
		return
	}

	result, err := h.pipeline.Process(c.Request.Context(), *req.Text)
	if err != nil {
		if errors.Is(err, pipeline.ErrDomainRejected) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:  domainRejectedError,
				Detail: domainRejectedDetail,
			})
			return
		}

		// Model failures surface as-is; there are no partial results.
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, toProcessResponse(result))
}

// ReadyCheck handles GET /ready. The service is ready when both model
// stages can serve.
func (h *Handler) ReadyCheck(c *gin.Context) {
	statuses := h.pipeline.ModelsHealth(c.Request.Context())

	for _, s := range statuses {
		if !s.Healthy {
			c.JSON(http.StatusServiceUnavailable, ReadyResponse{
				Status: "not ready",
				Models: statuses,
			})
			return
		}
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status: "ready",
		Models: statuses,
	})
}

// ListKeywords handles GET /api/v1/keywords. The keyword set is fixed
// for the process lifetime, so this is read-only.
func (h *Handler) ListKeywords(c *gin.Context) {
	keywords := h.pipeline.Keywords()
	c.JSON(http.StatusOK, KeywordsResponse{
		Keywords: keywords,
		Total:    len(keywords),
	})
}

// ModelsHealth handles GET /api/v1/models/health
func (h *Handler) ModelsHealth(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsHealthResponse{
		Backend: h.backend,
		Models:  h.pipeline.ModelsHealth(c.Request.Context()),
	})
}
