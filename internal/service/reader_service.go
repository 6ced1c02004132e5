package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/daily-digest-api/internal/config"
	"github.com/daily-digest-api/internal/docstore"
	"github.com/daily-digest-api/internal/models"
	"github.com/rs/zerolog"
)

// committedArticles matches committed rows only; documents staged by an
// in-flight publish carry pending=true and stay invisible to readers.
func committedArticles() docstore.Filter {
	return docstore.Filter{}.Ne("pending", "true")
}

// readerService is the concrete implementation of ReaderService. Read
// paths degrade to empty results on store failures: absence of data is
// a valid state for a freshly provisioned deployment.
type readerService struct {
	store docstore.Store
	cfg   *config.Config
	log   zerolog.Logger
}

// newReaderService creates a new ReaderService
func newReaderService(store docstore.Store, cfg *config.Config, log zerolog.Logger) *readerService {
	return &readerService{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("service", "reader").Logger(),
	}
}

// Today returns the most recent date's full committed batch plus the
// active domain list.
func (s *readerService) Today(ctx context.Context) (*models.TodayResult, error) {
	empty := &models.TodayResult{Articles: []models.Article{}, Domains: []models.Domain{}}

	latest := s.latestDate(ctx, models.CollectionArticles, committedArticles())
	if latest == "" {
		return empty, nil
	}

	filter := committedArticles().Eq("date", latest)
	order := []docstore.Order{{Field: "domain"}}
	docs, err := s.store.FindWhere(ctx, models.CollectionArticles, filter, order, 0, 0)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read today's articles")
		return empty, nil
	}

	articles := decodeAll[models.Article](docs)
	return &models.TodayResult{
		Date:     latest,
		Articles: articles,
		Domains:  s.activeDomains(ctx),
		Total:    len(articles),
	}, nil
}

// Archive returns committed rows strictly before the latest date so the
// current batch never shows up twice.
func (s *readerService) Archive(ctx context.Context, page, limit int, domain string) (*models.ArchiveResult, error) {
	page, limit = s.clampPage(page, limit)
	skip := (page - 1) * limit

	filter := committedArticles()
	if domain != "" {
		filter = filter.Eq("domain", domain)
	}
	if latest := s.latestDate(ctx, models.CollectionArticles, committedArticles()); latest != "" {
		filter = filter.Lt("date", latest)
	}

	empty := &models.ArchiveResult{Articles: []models.Article{}, Page: page}

	total, err := s.store.CountWhere(ctx, models.CollectionArticles, filter)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to count archive rows")
		return empty, nil
	}

	order := []docstore.Order{{Field: "date", Desc: true}, {Field: "domain"}}
	docs, err := s.store.FindWhere(ctx, models.CollectionArticles, filter, order, skip, limit)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read archive rows")
		return empty, nil
	}

	articles := decodeAll[models.Article](docs)
	return &models.ArchiveResult{
		Articles: articles,
		Total:    total,
		Page:     page,
		Pages:    (total + limit - 1) / limit,
		HasMore:  skip+len(articles) < total,
	}, nil
}

// Search matches a keyword case-insensitively against title and content.
func (s *readerService) Search(ctx context.Context, keyword string, limit int) (*models.SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	result := &models.SearchResult{Keyword: keyword, Articles: []models.Article{}}
	if keyword == "" {
		return result, nil
	}

	_, limit = s.clampPage(1, limit)
	filter := committedArticles().Match(keyword, "title", "content")
	order := []docstore.Order{{Field: "date", Desc: true}, {Field: "domain"}}

	docs, err := s.store.FindWhere(ctx, models.CollectionArticles, filter, order, 0, limit)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to search articles")
		return result, nil
	}

	result.Articles = decodeAll[models.Article](docs)
	result.Total = len(result.Articles)
	return result, nil
}

// Domains returns the active domain list ordered for display.
func (s *readerService) Domains(ctx context.Context) ([]models.Domain, error) {
	return s.activeDomains(ctx), nil
}

// PodcastLatest returns the most recent podcast batch in producer order.
func (s *readerService) PodcastLatest(ctx context.Context) (*models.PodcastLatestResult, error) {
	empty := &models.PodcastLatestResult{Articles: []models.PodcastArticle{}}

	latest := s.latestDate(ctx, models.CollectionPodcast, docstore.Filter{})
	if latest == "" {
		return empty, nil
	}

	filter := docstore.Filter{}.Eq("date", latest)
	order := []docstore.Order{{Field: docstore.FieldID}}
	docs, err := s.store.FindWhere(ctx, models.CollectionPodcast, filter, order, 0, 0)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read latest podcast batch")
		return empty, nil
	}

	articles := decodeAll[models.PodcastArticle](docs)
	return &models.PodcastLatestResult{Date: latest, Articles: articles, Total: len(articles)}, nil
}

// PodcastArchive pages through podcast rows before the latest date.
func (s *readerService) PodcastArchive(ctx context.Context, page, limit int) (*models.PodcastArchiveResult, error) {
	page, limit = s.clampPage(page, limit)
	skip := (page - 1) * limit

	filter := docstore.Filter{}
	if latest := s.latestDate(ctx, models.CollectionPodcast, docstore.Filter{}); latest != "" {
		filter = filter.Lt("date", latest)
	}

	empty := &models.PodcastArchiveResult{Articles: []models.PodcastArticle{}, Page: page}

	total, err := s.store.CountWhere(ctx, models.CollectionPodcast, filter)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to count podcast archive")
		return empty, nil
	}

	order := []docstore.Order{{Field: "date", Desc: true}, {Field: docstore.FieldID}}
	docs, err := s.store.FindWhere(ctx, models.CollectionPodcast, filter, order, skip, limit)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read podcast archive")
		return empty, nil
	}

	articles := decodeAll[models.PodcastArticle](docs)
	return &models.PodcastArchiveResult{
		Articles: articles,
		Total:    total,
		Page:     page,
		Pages:    (total + limit - 1) / limit,
		HasMore:  skip+len(articles) < total,
	}, nil
}

// latestDate finds the newest date present in a collection, empty when
// the collection has no rows or the store is unavailable.
func (s *readerService) latestDate(ctx context.Context, collection string, filter docstore.Filter) string {
	order := []docstore.Order{{Field: "date", Desc: true}}
	docs, err := s.store.FindWhere(ctx, collection, filter, order, 0, 1)
	if err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("Failed to resolve latest date")
		return ""
	}
	if len(docs) == 0 {
		return ""
	}

	var row struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(docs[0].Data, &row); err != nil {
		return ""
	}
	return row.Date
}

func (s *readerService) activeDomains(ctx context.Context) []models.Domain {
	filter := docstore.Filter{}.Eq("active", "true")
	order := []docstore.Order{{Field: "sort_order"}}
	docs, err := s.store.FindWhere(ctx, models.CollectionDomains, filter, order, 0, 0)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read domains")
		return []models.Domain{}
	}
	return decodeAll[models.Domain](docs)
}

// clampPage bounds page and limit server-side to prevent abusive scans.
func (s *readerService) clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.Read.DefaultLimit
	}
	if limit > s.cfg.Read.MaxLimit {
		limit = s.cfg.Read.MaxLimit
	}
	return page, limit
}
