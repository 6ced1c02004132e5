package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/daily-digest-api/internal/mocks"
	"github.com/daily-digest-api/internal/models"
)

func seedArticle(t *testing.T, store *mocks.MemStore, id, date, domain, title string, pending bool) {
	t.Helper()
	a := testArticle(domain, title)
	a.ID = id
	a.Date = date
	a.CreatedAt = time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	a.Pending = pending
	if err := store.Insert(context.Background(), models.CollectionArticles, id, a); err != nil {
		t.Fatalf("seed %s failed: %v", id, err)
	}
}

func TestToday_EmptyStore(t *testing.T) {
	svc := newTestServices(mocks.NewMemStore(), mocks.NewMockLocker(), nil)

	result, err := svc.Reader.Today(context.Background())
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if result.Date != "" || len(result.Articles) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
	if result.Articles == nil {
		t.Error("Articles must be an empty slice, not nil")
	}
}

func TestToday_IgnoresPendingRows(t *testing.T) {
	store := mocks.NewMemStore()
	svc := newTestServices(store, mocks.NewMockLocker(), nil)

	seedArticle(t, store, "2026-08-27_T_001", "2026-08-27", "T", "Committed", false)
	// staged rows for a newer date must stay invisible
	seedArticle(t, store, "2026-08-28_T_001", "2026-08-28", "T", "Staged", true)

	result, err := svc.Reader.Today(context.Background())
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if result.Date != "2026-08-27" {
		t.Errorf("Expected latest committed date 2026-08-27, got %q", result.Date)
	}
	if len(result.Articles) != 1 || result.Articles[0].Title != "Committed" {
		t.Errorf("Expected only the committed article, got %+v", result.Articles)
	}
}

func TestArchive_PaginationContract(t *testing.T) {
	store := mocks.NewMemStore()
	svc := newTestServices(store, mocks.NewMockLocker(), nil)
	ctx := context.Background()

	// latest batch, must never appear in the archive
	seedArticle(t, store, "2026-08-28_T_001", "2026-08-28", "T", "Today's article", false)

	// 45 older rows
	for i := 0; i < 45; i++ {
		id := fmt.Sprintf("2026-07-01_T_%03d", i+1)
		seedArticle(t, store, id, "2026-07-01", "T", fmt.Sprintf("Old %d", i+1), false)
	}

	page1, err := svc.Reader.Archive(ctx, 1, 20, "")
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if len(page1.Articles) != 20 {
		t.Errorf("Expected 20 articles on page 1, got %d", len(page1.Articles))
	}
	if page1.Total != 45 || page1.Pages != 3 {
		t.Errorf("Expected total=45 pages=3, got total=%d pages=%d", page1.Total, page1.Pages)
	}
	if !page1.HasMore {
		t.Error("Expected hasMore=true on page 1")
	}

	page3, err := svc.Reader.Archive(ctx, 3, 20, "")
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if len(page3.Articles) != 5 {
		t.Errorf("Expected 5 articles on page 3, got %d", len(page3.Articles))
	}
	if page3.HasMore {
		t.Error("Expected hasMore=false on the last page")
	}

	for _, a := range append(page1.Articles, page3.Articles...) {
		if a.Date == "2026-08-28" {
			t.Errorf("Latest date leaked into the archive: %+v", a)
		}
	}
}

func TestArchive_ClampsPageAndLimit(t *testing.T) {
	store := mocks.NewMemStore()
	svc := newTestServices(store, mocks.NewMockLocker(), nil)
	ctx := context.Background()

	seedArticle(t, store, "2026-08-28_T_001", "2026-08-28", "T", "Latest", false)
	for i := 0; i < 30; i++ {
		seedArticle(t, store, fmt.Sprintf("2026-07-01_T_%03d", i+1), "2026-07-01", "T", "Old", false)
	}

	// zero values select the defaults
	result, err := svc.Reader.Archive(ctx, 0, 0, "")
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if result.Page != 1 || len(result.Articles) != 20 {
		t.Errorf("Expected page=1 with default limit 20, got page=%d n=%d", result.Page, len(result.Articles))
	}

	// oversized limits get capped
	result, err = svc.Reader.Archive(ctx, 1, 500, "")
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if len(result.Articles) != 30 {
		t.Errorf("Expected all 30 rows under the 50 cap, got %d", len(result.Articles))
	}
}

func TestArchive_FiltersByDomain(t *testing.T) {
	store := mocks.NewMemStore()
	svc := newTestServices(store, mocks.NewMockLocker(), nil)
	ctx := context.Background()

	seedArticle(t, store, "2026-08-28_T_001", "2026-08-28", "T", "Latest", false)
	seedArticle(t, store, "2026-07-01_T_001", "2026-07-01", "T", "Tech", false)
	seedArticle(t, store, "2026-07-01_P_002", "2026-07-01", "P", "Politics", false)

	result, err := svc.Reader.Archive(ctx, 1, 20, "P")
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if result.Total != 1 || len(result.Articles) != 1 || result.Articles[0].Domain != "P" {
		t.Errorf("Expected only the P article, got %+v", result.Articles)
	}
}

func TestSearch_MatchesTitleAndContent(t *testing.T) {
	store := mocks.NewMemStore()
	svc := newTestServices(store, mocks.NewMockLocker(), nil)
	ctx := context.Background()

	seedArticle(t, store, "2026-08-28_T_001", "2026-08-28", "T", "Quantum Computing Advances", false)
	seedArticle(t, store, "2026-08-28_P_002", "2026-08-28", "P", "Election Season", false)
	seedArticle(t, store, "2026-08-27_T_001", "2026-08-27", "T", "Staged quantum draft", true)

	result, err := svc.Reader.Search(ctx, "quantum", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Total != 1 || len(result.Articles) != 1 {
		t.Fatalf("Expected 1 committed match, got %d", result.Total)
	}
	if result.Articles[0].Title != "Quantum Computing Advances" {
		t.Errorf("Unexpected match: %+v", result.Articles[0])
	}

	empty, err := svc.Reader.Search(ctx, "   ", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if empty.Total != 0 || len(empty.Articles) != 0 {
		t.Errorf("Blank keyword must return an empty result, got %+v", empty)
	}
}

func TestPodcastLatestAndArchive(t *testing.T) {
	store := mocks.NewMemStore()
	svc := newTestServices(store, mocks.NewMockLocker(), nil)
	ctx := context.Background()

	episodes := []models.PodcastArticle{
		{ID: "podcast_2026-08-21_001", Date: "2026-08-21", Domain: "T", Title: "Older one", VideoID: "v1", Channel: "c"},
		{ID: "podcast_2026-08-21_002", Date: "2026-08-21", Domain: "T", Title: "Older two", VideoID: "v2", Channel: "c"},
		{ID: "podcast_2026-08-28_001", Date: "2026-08-28", Domain: "T", Title: "Newest", VideoID: "v3", Channel: "c"},
	}
	for _, e := range episodes {
		if err := store.Insert(ctx, models.CollectionPodcast, e.ID, e); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	latest, err := svc.Reader.PodcastLatest(ctx)
	if err != nil {
		t.Fatalf("PodcastLatest failed: %v", err)
	}
	if latest.Date != "2026-08-28" || latest.Total != 1 {
		t.Errorf("Expected the newest batch, got date=%q total=%d", latest.Date, latest.Total)
	}

	archive, err := svc.Reader.PodcastArchive(ctx, 1, 20)
	if err != nil {
		t.Fatalf("PodcastArchive failed: %v", err)
	}
	if archive.Total != 2 {
		t.Errorf("Expected 2 archived episodes, got %d", archive.Total)
	}
	for _, e := range archive.Articles {
		if e.Date == "2026-08-28" {
			t.Errorf("Latest batch leaked into the podcast archive: %+v", e)
		}
	}
}

func TestReads_DegradeToEmptyOnStoreFailure(t *testing.T) {
	store := mocks.NewMemStore()
	store.FindErr = fmt.Errorf("connection refused")
	store.CountErr = fmt.Errorf("connection refused")
	svc := newTestServices(store, mocks.NewMockLocker(), nil)
	ctx := context.Background()

	today, err := svc.Reader.Today(ctx)
	if err != nil || len(today.Articles) != 0 {
		t.Errorf("Today must degrade to empty, got %+v err=%v", today, err)
	}
	archive, err := svc.Reader.Archive(ctx, 1, 20, "")
	if err != nil || len(archive.Articles) != 0 {
		t.Errorf("Archive must degrade to empty, got %+v err=%v", archive, err)
	}
	search, err := svc.Reader.Search(ctx, "x", 0)
	if err != nil || len(search.Articles) != 0 {
		t.Errorf("Search must degrade to empty, got %+v err=%v", search, err)
	}
}
