// Package config provides configuration for the fashion-nlp service.
// Configuration is read from a YAML file with environment variable
// overrides applied via `env` struct tags.
package config

import (
	"time"
)

// Default configuration values.
const (
	defaultServiceName     = "fashion-nlp"
	defaultServiceVersion  = "1.0.0"
	defaultEnv             = "development"
	defaultPort            = 8080
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 30 * time.Second
	defaultBackend         = "onnx"
	defaultNERBundleDir    = "models/ner"
	defaultQABundleDir     = "models/qa"
	defaultNERSeqLen       = 256
	defaultQASeqLen        = 384
	defaultMaxAnswerLen    = 15
	defaultRemoteURL       = "http://inference:8090"
	defaultLogLevel        = "info"
)

// Config holds all configuration for the fashion-nlp service.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Server  ServerConfig  `yaml:"server"`
	Models  ModelsConfig  `yaml:"models"`
	Filter  FilterConfig  `yaml:"filter"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// Env names the runtime mode (e.g. "development", "production").
	// It only affects the startup log line.
	Env   string `env:"APP_ENV"   yaml:"env"`
	Debug bool   `env:"APP_DEBUG" yaml:"debug"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `env:"FASHION_NLP_PORT" yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ModelsConfig holds inference backend configuration.
type ModelsConfig struct {
	// Backend selects the inference backend: "onnx" (in-process) or
	// "remote" (HTTP sidecar).
	Backend string `env:"MODELS_BACKEND" yaml:"backend"`
	// Warmup runs one inference through each model at startup.
	Warmup bool           `yaml:"warmup"`
	NER    NERModelConfig `yaml:"ner"`
	QA     QAModelConfig  `yaml:"qa"`
}

// NERModelConfig holds configuration for the entity extraction model.
type NERModelConfig struct {
	BundleDir string `env:"NER_BUNDLE_DIR"  yaml:"bundle_dir"`
	URL       string `env:"NER_SERVICE_URL" yaml:"url"`
	SeqLen    int    `yaml:"seq_len"`
}

// QAModelConfig holds configuration for the answer extraction model.
type QAModelConfig struct {
	BundleDir    string `env:"QA_BUNDLE_DIR"  yaml:"bundle_dir"`
	URL          string `env:"QA_SERVICE_URL" yaml:"url"`
	SeqLen       int    `yaml:"seq_len"`
	MaxAnswerLen int    `yaml:"max_answer_len"`
}

// FilterConfig holds domain filter configuration.
type FilterConfig struct {
	// Keywords overrides the built-in allowed keyword set when non-empty.
	Keywords []string `yaml:"keywords"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string `env:"LOG_LEVEL" yaml:"level"`
	Development bool   `yaml:"development"`
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setServerDefaults(&cfg.Server)
	setModelsDefaults(&cfg.Models)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Env == "" {
		s.Env = defaultEnv
	}
}

func setServerDefaults(s *ServerConfig) {
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = defaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownTimeout
	}
}

func setModelsDefaults(m *ModelsConfig) {
	if m.Backend == "" {
		m.Backend = defaultBackend
	}
	if m.NER.BundleDir == "" {
		m.NER.BundleDir = defaultNERBundleDir
	}
	if m.NER.URL == "" {
		m.NER.URL = defaultRemoteURL
	}
	if m.NER.SeqLen == 0 {
		m.NER.SeqLen = defaultNERSeqLen
	}
	if m.QA.BundleDir == "" {
		m.QA.BundleDir = defaultQABundleDir
	}
	if m.QA.URL == "" {
		m.QA.URL = defaultRemoteURL
	}
	if m.QA.SeqLen == 0 {
		m.QA.SeqLen = defaultQASeqLen
	}
	if m.QA.MaxAnswerLen == 0 {
		m.QA.MaxAnswerLen = defaultMaxAnswerLen
	}
}
