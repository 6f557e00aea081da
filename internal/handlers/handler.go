package handlers

import (
	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	service *services.AnalysisService
	ingest  config.IngestConfig
}

// New creates a new handler instance
func New(logger *logging.Logger, service *services.AnalysisService, ingestCfg config.IngestConfig) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		ingest:  ingestCfg,
	}
}
