package api

import (
	"strconv"

	"github.com/daily-digest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ReadHandler handles the public read endpoints
type ReadHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewReadHandler creates a new ReadHandler
func NewReadHandler(services *service.Services, log zerolog.Logger) *ReadHandler {
	return &ReadHandler{
		services: services,
		log:      log.With().Str("handler", "read").Logger(),
	}
}

// Today handles GET /v1/articles/today
func (h *ReadHandler) Today(c *gin.Context) {
	result, err := h.services.Reader.Today(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Archive handles GET /v1/articles/archive
func (h *ReadHandler) Archive(c *gin.Context) {
	page := intQuery(c, "page")
	limit := intQuery(c, "limit")
	domain := c.Query("domain")

	result, err := h.services.Reader.Archive(c.Request.Context(), page, limit, domain)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Search handles GET /v1/articles/search
func (h *ReadHandler) Search(c *gin.Context) {
	keyword := c.Query("keyword")
	limit := intQuery(c, "limit")

	result, err := h.services.Reader.Search(c.Request.Context(), keyword, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Domains handles GET /v1/articles/domains
func (h *ReadHandler) Domains(c *gin.Context) {
	domains, err := h.services.Reader.Domains(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"domains": domains})
}

// PodcastLatest handles GET /v1/podcast/latest
func (h *ReadHandler) PodcastLatest(c *gin.Context) {
	result, err := h.services.Reader.PodcastLatest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// PodcastArchive handles GET /v1/podcast/archive
func (h *ReadHandler) PodcastArchive(c *gin.Context) {
	page := intQuery(c, "page")
	limit := intQuery(c, "limit")

	result, err := h.services.Reader.PodcastArchive(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// intQuery parses an integer query parameter, zero when absent or
// malformed; the services clamp from there.
func intQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
