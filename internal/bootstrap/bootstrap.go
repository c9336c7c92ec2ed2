// Package bootstrap assembles the service components: configuration,
// logging, the domain filter, the inference backend, and the HTTP
// server.
package bootstrap

import (
	"fmt"

	"github.com/stylora/fashion-nlp/internal/api"
	"github.com/stylora/fashion-nlp/internal/config"
	"github.com/stylora/fashion-nlp/internal/domainfilter"
	"github.com/stylora/fashion-nlp/internal/httpserver"
	"github.com/stylora/fashion-nlp/internal/logging"
	"github.com/stylora/fashion-nlp/internal/nlp"
	"github.com/stylora/fashion-nlp/internal/pipeline"
	"github.com/stylora/fashion-nlp/internal/telemetry"
)

// Backend names accepted in models.backend.
const (
	BackendONNX   = "onnx"
	BackendRemote = "remote"
)

// Components holds everything needed to run the HTTP service.
type Components struct {
	Config    *config.Config
	Logger    logging.Logger
	Pipeline  *pipeline.Pipeline
	Telemetry *telemetry.Provider
	Server    *httpserver.Server

	closers []func()
}

// LoadConfig loads configuration from the default path, honoring
// CONFIG_PATH. A missing file is not an error; defaults and environment
// overrides apply.
func LoadConfig() (*config.Config, error) {
	return config.Load(config.Path("config.yml"))
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (logging.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development || cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger.With(logging.String("service", cfg.Service.Name)), nil
}

// NewComponents creates all service components. Model loading happens
// here: if either model cannot be loaded the service must not start.
func NewComponents(cfg *config.Config, logger logging.Logger) (*Components, error) {
	provider := telemetry.NewProvider()

	filter := domainfilter.New(cfg.Filter.Keywords)
	logger.Info("Domain filter initialized",
		logging.Int("keywords", filter.Size()),
	)

	ner, qa, closers, err := newExtractors(cfg, logger)
	if err != nil {
		return nil, err
	}

	pipe := pipeline.New(filter, ner, qa, logger, provider)
	handler := api.NewHandler(pipe, cfg.Models.Backend, logger)
	server := api.NewServer(handler, cfg, provider, logger)

	return &Components{
		Config:    cfg,
		Logger:    logger,
		Pipeline:  pipe,
		Telemetry: provider,
		Server:    server,
		closers:   closers,
	}, nil
}

// Close releases model sessions and other held resources.
func (c *Components) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
}

// newExtractors builds the configured inference backend.
func newExtractors(
	cfg *config.Config,
	logger logging.Logger,
) (ner nlp.EntityExtractor, qa nlp.AnswerExtractor, closers []func(), err error) {
	switch cfg.Models.Backend {
	case BackendONNX:
		nerModel, err := nlp.LoadNERModel(cfg.Models.NER.BundleDir, cfg.Models.NER.SeqLen)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load ner model: %w", err)
		}
		logger.Info("NER model loaded",
			logging.String("bundle_dir", cfg.Models.NER.BundleDir),
			logging.Int("labels", len(nerModel.Labels())),
		)

		qaModel, err := nlp.LoadQAModel(cfg.Models.QA.BundleDir, cfg.Models.QA.SeqLen, cfg.Models.QA.MaxAnswerLen)
		if err != nil {
			nerModel.Close()
			return nil, nil, nil, fmt.Errorf("load qa model: %w", err)
		}
		logger.Info("QA model loaded",
			logging.String("bundle_dir", cfg.Models.QA.BundleDir),
		)

		return nerModel, qaModel, []func(){nerModel.Close, qaModel.Close}, nil

	case BackendRemote:
		if cfg.Models.NER.URL == "" || cfg.Models.QA.URL == "" {
			return nil, nil, nil, fmt.Errorf("remote backend requires ner and qa service URLs")
		}
		logger.Info("Using remote inference backend",
			logging.String("ner_url", cfg.Models.NER.URL),
			logging.String("qa_url", cfg.Models.QA.URL),
		)
		return nlp.NewRemoteNER(cfg.Models.NER.URL), nlp.NewRemoteQA(cfg.Models.QA.URL), nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown models backend %q", cfg.Models.Backend)
	}
}
