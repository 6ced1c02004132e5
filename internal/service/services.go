package service

import (
	"context"

	"github.com/daily-digest-api/internal/config"
	"github.com/daily-digest-api/internal/docstore"
	"github.com/daily-digest-api/internal/lease"
	"github.com/daily-digest-api/internal/models"
	"github.com/rs/zerolog"
)

// PublishService defines the producer-facing write operations
type PublishService interface {
	Publish(ctx context.Context, req *models.PublishRequest) (*models.PublishResult, error)
	PublishPodcast(ctx context.Context, req *models.PodcastPublishRequest) (*models.PublishResult, error)
	RepairPending(ctx context.Context, date string) (int, error)
	SeedDomains(ctx context.Context) (int, error)
}

// ReaderService defines the public read operations
type ReaderService interface {
	Today(ctx context.Context) (*models.TodayResult, error)
	Archive(ctx context.Context, page, limit int, domain string) (*models.ArchiveResult, error)
	Search(ctx context.Context, keyword string, limit int) (*models.SearchResult, error)
	Domains(ctx context.Context) ([]models.Domain, error)
	PodcastLatest(ctx context.Context) (*models.PodcastLatestResult, error)
	PodcastArchive(ctx context.Context, page, limit int) (*models.PodcastArchiveResult, error)
}

// VoteService defines the vote ledger and aggregation operations
type VoteService interface {
	Submit(ctx context.Context, req *models.SubmitVoteRequest) (*models.SubmitResult, error)
	Result(ctx context.Context, questionID string) (*models.VoteResult, error)
	Check(ctx context.Context, questionID, voterID string) (*models.VoteCheck, error)
	Create(ctx context.Context, question *models.VoteQuestion) (*models.VoteQuestion, error)
	Trend(ctx context.Context, domain string, days int) (*models.TrendResult, error)
	Stats(ctx context.Context) (*models.StatsResult, error)
}

// Services holds all service interfaces
type Services struct {
	Publish PublishService
	Reader  ReaderService
	Vote    VoteService

	// Domains is exposed so operators can invalidate the cache after
	// editing domain configuration out of band.
	Domains *DomainCache
}

// NewServices creates all services on top of one document store
func NewServices(store docstore.Store, locker lease.Locker, staticQuestions []models.VoteQuestion, cfg *config.Config, log zerolog.Logger) *Services {
	domains := NewDomainCache(store, cfg.Publish.DomainCacheTTL, log)

	return &Services{
		Publish: newPublishService(store, locker, domains, cfg, log),
		Reader:  newReaderService(store, cfg, log),
		Vote:    newVoteService(store, staticQuestions, cfg, log),
		Domains: domains,
	}
}
