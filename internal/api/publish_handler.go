package api

import (
	"github.com/daily-digest-api/internal/models"
	"github.com/daily-digest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PublishHandler handles producer-facing write endpoints
type PublishHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPublishHandler creates a new PublishHandler
func NewPublishHandler(services *service.Services, log zerolog.Logger) *PublishHandler {
	return &PublishHandler{
		services: services,
		log:      log.With().Str("handler", "publish").Logger(),
	}
}

// PublishArticles handles POST /v1/articles
func (h *PublishHandler) PublishArticles(c *gin.Context) {
	var req models.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewError(models.CodeValidation, "invalid JSON body"))
		return
	}

	result, err := h.services.Publish.Publish(c.Request.Context(), &req)
	if err != nil {
		h.log.Warn().Err(err).Str("date", req.Date).Msg("Publish rejected")
		respondError(c, err)
		return
	}

	h.log.Info().
		Str("date", result.Date).
		Int("inserted", result.Inserted).
		Msg("Articles published")
	respondOK(c, result)
}

// PublishPodcast handles POST /v1/podcast
func (h *PublishHandler) PublishPodcast(c *gin.Context) {
	var req models.PodcastPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewError(models.CodeValidation, "invalid JSON body"))
		return
	}

	result, err := h.services.Publish.PublishPodcast(c.Request.Context(), &req)
	if err != nil {
		h.log.Warn().Err(err).Str("date", req.Date).Msg("Podcast publish rejected")
		respondError(c, err)
		return
	}

	respondOK(c, result)
}

// SeedDomains handles POST /v1/admin/domains/seed
func (h *PublishHandler) SeedDomains(c *gin.Context) {
	inserted, err := h.services.Publish.SeedDomains(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"inserted": inserted})
}

// RepairPending handles POST /v1/admin/repair-pending
func (h *PublishHandler) RepairPending(c *gin.Context) {
	date := c.Query("date")
	repaired, err := h.services.Publish.RepairPending(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"repaired": repaired, "date": date})
}
