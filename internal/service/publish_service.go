package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/daily-digest-api/internal/config"
	"github.com/daily-digest-api/internal/docstore"
	"github.com/daily-digest-api/internal/lease"
	"github.com/daily-digest-api/internal/models"
	"github.com/daily-digest-api/internal/validation"
	"github.com/rs/zerolog"
)

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// publishService is the concrete implementation of PublishService. The
// daily publish is a staged replace: stage pending rows, verify the
// count, delete the committed batch, clear the markers. Readers only
// ever see complete batches because they filter pending rows out.
type publishService struct {
	store   docstore.Store
	locker  lease.Locker
	domains *DomainCache
	cfg     *config.Config
	log     zerolog.Logger
}

// newPublishService creates a new PublishService
func newPublishService(store docstore.Store, locker lease.Locker, domains *DomainCache, cfg *config.Config, log zerolog.Logger) *publishService {
	return &publishService{
		store:   store,
		locker:  locker,
		domains: domains,
		cfg:     cfg,
		log:     log.With().Str("service", "publish").Logger(),
	}
}

// Publish atomically replaces the complete article set for one date.
// Re-running with the same input is safe; a different batch for the
// same date fully supersedes the previous one.
func (s *publishService) Publish(ctx context.Context, req *models.PublishRequest) (*models.PublishResult, error) {
	if req == nil || !dateRegex.MatchString(req.Date) {
		return nil, models.NewError(models.CodeValidation, "date must match YYYY-MM-DD")
	}
	if len(req.Articles) == 0 {
		return nil, models.NewError(models.CodeValidation, "articles must not be empty")
	}

	validator := validation.NewValidator(s.domains.ActiveCodes(ctx), s.cfg.Publish.MinContentLength)
	if errs := validator.ValidateBatch(req.Articles); len(errs) > 0 {
		return nil, models.NewValidationFailure("article validation failed", errs)
	}

	release, err := s.locker.Acquire(ctx, "publish:"+req.Date)
	if err != nil {
		if errors.Is(err, lease.ErrHeld) {
			return nil, models.NewError(models.CodeAlreadyExists, "a publish for this date is already in progress")
		}
		return nil, models.WrapError(models.CodeStoreUnavailable, "acquire publish lease", err)
	}
	defer release()

	pendingFilter := docstore.Filter{}.Eq("date", req.Date).Eq("pending", "true")

	// Reclaim rows left behind by an interrupted attempt so retries
	// always start clean.
	if _, err := s.store.DeleteWhere(ctx, models.CollectionArticles, pendingFilter); err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "clean leftover pending rows", err)
	}

	// All rows of one publish share created_at; the repair path relies
	// on this to tell a half-swapped batch from a crashed staging.
	now := time.Now().UTC()
	docs := make([]models.Article, len(req.Articles))
	for i, article := range req.Articles {
		article.ID = fmt.Sprintf("%s_%s_%03d", req.Date, article.Domain, i+1)
		article.Date = req.Date
		article.CreatedAt = now
		article.Pending = true
		docs[i] = article
	}

	for i := range docs {
		if err := s.insertPending(ctx, &docs[i]); err != nil {
			s.cleanupPending(ctx, req.Date)
			return nil, models.WrapError(models.CodeStoreUnavailable, fmt.Sprintf("stage article %s", docs[i].ID), err)
		}
	}

	// Guard against silent partial failures before touching the
	// committed batch.
	staged, err := s.store.CountWhere(ctx, models.CollectionArticles, pendingFilter)
	if err != nil {
		s.cleanupPending(ctx, req.Date)
		return nil, models.WrapError(models.CodeStoreUnavailable, "verify staged rows", err)
	}
	if staged != len(docs) {
		s.cleanupPending(ctx, req.Date)
		return nil, models.NewError(models.CodeIncompleteWrite, fmt.Sprintf("staged %d of %d articles", staged, len(docs)))
	}

	committedFilter := docstore.Filter{}.Eq("date", req.Date).Ne("pending", "true")
	if _, err := s.store.DeleteWhere(ctx, models.CollectionArticles, committedFilter); err != nil {
		// The staged rows stay for the retry to reclaim; removing them
		// here could leave a partially deleted committed batch as the
		// only content for the date.
		return nil, models.WrapError(models.CodeStoreUnavailable, "replace committed rows", err)
	}

	for i := range docs {
		// The content is already correct at this point; a marker that
		// fails to clear leaves a benign inconsistency repaired by
		// RepairPending rather than rolling back valid data.
		if err := s.store.UpsertByID(ctx, models.CollectionArticles, docs[i].ID, map[string]interface{}{"pending": false}); err != nil {
			s.log.Warn().Err(err).Str("id", docs[i].ID).Msg("Failed to clear pending marker")
		}
	}

	s.log.Info().
		Str("date", req.Date).
		Int("inserted", len(docs)).
		Msg("Publish completed")

	return &models.PublishResult{Inserted: len(docs), Date: req.Date}, nil
}

// insertPending stages one article. An id collision means a stale row
// from an earlier batch with the same ordinal; it is deleted first.
func (s *publishService) insertPending(ctx context.Context, article *models.Article) error {
	err := s.store.Insert(ctx, models.CollectionArticles, article.ID, article)
	if !errors.Is(err, docstore.ErrAlreadyExists) {
		return err
	}

	idFilter := docstore.Filter{}.Eq(docstore.FieldID, article.ID)
	if _, err := s.store.DeleteWhere(ctx, models.CollectionArticles, idFilter); err != nil {
		return err
	}
	return s.store.Insert(ctx, models.CollectionArticles, article.ID, article)
}

func (s *publishService) cleanupPending(ctx context.Context, date string) {
	filter := docstore.Filter{}.Eq("date", date).Eq("pending", "true")
	if _, err := s.store.DeleteWhere(ctx, models.CollectionArticles, filter); err != nil {
		s.log.Error().Err(err).Str("date", date).Msg("Failed to clean up pending rows")
	}
}

// RepairPending reconciles rows still flagged pending for a date. Rows
// staged by the same run as the committed batch (or left after a
// completed swap) get their markers cleared; rows from a crashed
// staging against an older committed batch are discarded.
func (s *publishService) RepairPending(ctx context.Context, date string) (int, error) {
	if !dateRegex.MatchString(date) {
		return 0, models.NewError(models.CodeValidation, "date must match YYYY-MM-DD")
	}

	pendingFilter := docstore.Filter{}.Eq("date", date).Eq("pending", "true")
	docs, err := s.store.FindWhere(ctx, models.CollectionArticles, pendingFilter, nil, 0, 0)
	if err != nil {
		return 0, models.WrapError(models.CodeStoreUnavailable, "load pending rows", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	pending := decodeAll[models.Article](docs)
	committedFilter := docstore.Filter{}.Eq("date", date).Ne("pending", "true")
	committedDocs, err := s.store.FindWhere(ctx, models.CollectionArticles, committedFilter, nil, 0, 1)
	if err != nil {
		return 0, models.WrapError(models.CodeStoreUnavailable, "load committed rows", err)
	}

	if len(committedDocs) > 0 && len(pending) > 0 {
		committed := decodeAll[models.Article](committedDocs)
		if len(committed) > 0 && !committed[0].CreatedAt.Equal(pending[0].CreatedAt) {
			removed, err := s.store.DeleteWhere(ctx, models.CollectionArticles, pendingFilter)
			if err != nil {
				return 0, models.WrapError(models.CodeStoreUnavailable, "discard stale pending rows", err)
			}
			s.log.Info().Str("date", date).Int("removed", removed).Msg("Discarded crashed staging")
			return removed, nil
		}
	}

	repaired := 0
	for _, doc := range docs {
		if err := s.store.UpsertByID(ctx, models.CollectionArticles, doc.ID, map[string]interface{}{"pending": false}); err != nil {
			s.log.Warn().Err(err).Str("id", doc.ID).Msg("Failed to clear pending marker during repair")
			continue
		}
		repaired++
	}
	s.log.Info().Str("date", date).Int("repaired", repaired).Msg("Cleared stale pending markers")
	return repaired, nil
}

// PublishPodcast replaces one date's podcast batch. The replacement is
// unstaged: podcast content is lower stakes, and per-row failures are
// logged and skipped instead of failing the batch.
func (s *publishService) PublishPodcast(ctx context.Context, req *models.PodcastPublishRequest) (*models.PublishResult, error) {
	if req == nil || !dateRegex.MatchString(req.Date) {
		return nil, models.NewError(models.CodeValidation, "date must match YYYY-MM-DD")
	}
	if len(req.Articles) == 0 {
		return nil, models.NewError(models.CodeValidation, "articles must not be empty")
	}

	dateFilter := docstore.Filter{}.Eq("date", req.Date)
	if _, err := s.store.DeleteWhere(ctx, models.CollectionPodcast, dateFilter); err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "remove previous podcast batch", err)
	}

	now := time.Now().UTC()
	inserted := 0
	for i := range req.Articles {
		article := req.Articles[i]
		article.ID = fmt.Sprintf("podcast_%s_%03d", req.Date, i+1)
		article.Date = req.Date
		if article.Domain == "" {
			article.Domain = "T"
		}
		article.CreatedAt = now

		err := s.store.Insert(ctx, models.CollectionPodcast, article.ID, article)
		if errors.Is(err, docstore.ErrAlreadyExists) {
			idFilter := docstore.Filter{}.Eq(docstore.FieldID, article.ID)
			if _, derr := s.store.DeleteWhere(ctx, models.CollectionPodcast, idFilter); derr == nil {
				err = s.store.Insert(ctx, models.CollectionPodcast, article.ID, article)
			} else {
				err = derr
			}
		}
		if err != nil {
			s.log.Error().Err(err).Str("id", article.ID).Msg("Failed to write podcast article")
			continue
		}
		inserted++
	}

	s.log.Info().
		Str("date", req.Date).
		Int("inserted", inserted).
		Int("total", len(req.Articles)).
		Msg("Podcast publish completed")

	return &models.PublishResult{Inserted: inserted, Date: req.Date}, nil
}

// SeedDomains replaces the domains collection with the built-in catalog
// and invalidates the domain cache.
func (s *publishService) SeedDomains(ctx context.Context) (int, error) {
	if _, err := s.store.DeleteWhere(ctx, models.CollectionDomains, docstore.Filter{}); err != nil {
		return 0, models.WrapError(models.CodeStoreUnavailable, "clear domains", err)
	}

	inserted := 0
	for _, domain := range DefaultDomains {
		if err := s.store.Insert(ctx, models.CollectionDomains, domain.ID, domain); err != nil {
			return inserted, models.WrapError(models.CodeStoreUnavailable, fmt.Sprintf("seed domain %s", domain.ID), err)
		}
		inserted++
	}

	s.domains.Invalidate()
	s.log.Info().Int("domains", inserted).Msg("Domain catalog seeded")
	return inserted, nil
}
