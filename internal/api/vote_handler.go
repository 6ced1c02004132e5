package api

import (
	"github.com/daily-digest-api/internal/models"
	"github.com/daily-digest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// VoteHandler handles the vote endpoints
type VoteHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewVoteHandler creates a new VoteHandler
func NewVoteHandler(services *service.Services, log zerolog.Logger) *VoteHandler {
	return &VoteHandler{
		services: services,
		log:      log.With().Str("handler", "vote").Logger(),
	}
}

// Submit handles POST /v1/votes
func (h *VoteHandler) Submit(c *gin.Context) {
	var req models.SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewError(models.CodeValidation, "invalid JSON body"))
		return
	}

	result, err := h.services.Vote.Submit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Result handles GET /v1/votes/result
func (h *VoteHandler) Result(c *gin.Context) {
	result, err := h.services.Vote.Result(c.Request.Context(), c.Query("question_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Check handles GET /v1/votes/check
func (h *VoteHandler) Check(c *gin.Context) {
	result, err := h.services.Vote.Check(c.Request.Context(), c.Query("question_id"), c.Query("voter_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Create handles POST /v1/questions
func (h *VoteHandler) Create(c *gin.Context) {
	var question models.VoteQuestion
	if err := c.ShouldBindJSON(&question); err != nil {
		respondError(c, models.NewError(models.CodeValidation, "invalid JSON body"))
		return
	}

	stored, err := h.services.Vote.Create(c.Request.Context(), &question)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stored)
}

// Trend handles GET /v1/votes/trend
func (h *VoteHandler) Trend(c *gin.Context) {
	domain := c.Query("domain")
	days := intQuery(c, "days")

	result, err := h.services.Vote.Trend(c.Request.Context(), domain, days)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Stats handles GET /v1/votes/stats
func (h *VoteHandler) Stats(c *gin.Context) {
	result, err := h.services.Vote.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
