package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daily-digest-api/internal/api"
	"github.com/daily-digest-api/internal/config"
	"github.com/daily-digest-api/internal/mocks"
	"github.com/daily-digest-api/internal/models"
	"github.com/daily-digest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const testAPIKey = "test-secret"

func setupTestRouter(apiKey string) (*gin.Engine, *mocks.MemStore) {
	gin.SetMode(gin.TestMode)

	store := mocks.NewMemStore()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Publish: config.PublishConfig{
			APIKey:           apiKey,
			MinContentLength: 10,
			DomainCacheTTL:   time.Minute,
		},
		Read: config.ReadConfig{DefaultLimit: 20, MaxLimit: 50},
		Vote: config.VoteConfig{
			TrendMinDays:      7,
			TrendMaxDays:      365,
			TrendDefaultDays:  90,
			TrendScanLimit:    1000,
			ReportingTimezone: "UTC",
		},
	}

	static := []models.VoteQuestion{
		{ID: "tech_ai", Question: "Is AI deepening social stratification?", OptionA: "Deepening it", OptionB: "Democratizing access", Domain: "T"},
	}

	log := zerolog.Nop()
	services := service.NewServices(store, mocks.NewMockLocker(), static, cfg, log)
	router := api.NewRouter(services, cfg, log)

	return router, store
}

func postJSON(router *gin.Engine, path, apiKey string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getJSON(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return envelope
}

func samplePublishRequest() models.PublishRequest {
	return models.PublishRequest{
		Date: "2026-08-28",
		Articles: []models.Article{
			{
				Domain:     "T",
				Title:      "Quantum Computing Advances",
				AuthorName: "Ada",
				Source:     "The Journal",
				SourceURL:  "https://example.com/a",
				Content:    strings.Repeat("x", 40),
			},
			{
				Domain:     "P",
				Title:      "Election Season",
				AuthorName: "Grace",
				Source:     "The Journal",
				SourceURL:  "https://example.com/b",
				Content:    strings.Repeat("y", 40),
			},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	w := getJSON(router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "daily-digest-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestPublish_RequiresAPIKey(t *testing.T) {
	router, store := setupTestRouter(testAPIKey)

	w := postJSON(router, "/v1/articles", "", samplePublishRequest())
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a key, got %d", w.Code)
	}

	w = postJSON(router, "/v1/articles", "wrong-key", samplePublishRequest())
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a wrong key, got %d", w.Code)
	}

	if store.Len(models.CollectionArticles) != 0 {
		t.Errorf("Unauthorized requests must not write, got %d rows", store.Len(models.CollectionArticles))
	}
}

func TestPublish_RefusesWhenKeyUnconfigured(t *testing.T) {
	router, _ := setupTestRouter("")

	w := postJSON(router, "/v1/articles", "anything", samplePublishRequest())
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 when no key is configured, got %d", w.Code)
	}
}

func TestPublish_AcceptsKeyViaQueryParam(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	raw, _ := json.Marshal(samplePublishRequest())
	req := httptest.NewRequest("POST", "/v1/articles?key="+testAPIKey, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with query-param key, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPublish_ThenReadToday(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	w := postJSON(router, "/v1/articles", testAPIKey, samplePublishRequest())
	if w.Code != http.StatusOK {
		t.Fatalf("Publish failed with %d: %s", w.Code, w.Body.String())
	}

	envelope := decodeEnvelope(t, w)
	if envelope["success"] != true {
		t.Errorf("Expected success=true, got %v", envelope["success"])
	}
	data := envelope["data"].(map[string]interface{})
	if data["inserted"].(float64) != 2 {
		t.Errorf("Expected 2 inserted, got %v", data["inserted"])
	}

	w = getJSON(router, "/v1/articles/today")
	if w.Code != http.StatusOK {
		t.Fatalf("Today failed with %d", w.Code)
	}
	envelope = decodeEnvelope(t, w)
	data = envelope["data"].(map[string]interface{})
	if data["date"] != "2026-08-28" {
		t.Errorf("Expected today's date, got %v", data["date"])
	}
	articles := data["articles"].([]interface{})
	if len(articles) != 2 {
		t.Errorf("Expected 2 articles, got %d", len(articles))
	}
}

func TestPublish_ValidationErrorsReturn400(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	req := samplePublishRequest()
	req.Articles[1].Domain = "X"

	w := postJSON(router, "/v1/articles", testAPIKey, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}

	envelope := decodeEnvelope(t, w)
	if envelope["success"] != false {
		t.Errorf("Expected success=false, got %v", envelope["success"])
	}
	errObj := envelope["error"].(map[string]interface{})
	if errObj["code"] != "validation_error" {
		t.Errorf("Expected validation_error, got %v", errObj["code"])
	}
	details := errObj["details"].([]interface{})
	if len(details) != 1 {
		t.Fatalf("Expected 1 detail, got %d", len(details))
	}
	if details[0].(map[string]interface{})["index"].(float64) != 1 {
		t.Errorf("Expected detail naming index 1, got %v", details[0])
	}
}

func TestPublish_MalformedBodyReturns400(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	req := httptest.NewRequest("POST", "/v1/articles", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", w.Code)
	}
}

func TestVoteFlow(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	w := postJSON(router, "/v1/votes", "", models.SubmitVoteRequest{
		QuestionID: "tech_ai", VoterID: "voter-1", Vote: "a",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Submit failed with %d: %s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	if data["already_voted"] != false {
		t.Errorf("Expected already_voted=false, got %v", data["already_voted"])
	}
	if data["percent_a"].(float64) != 100 {
		t.Errorf("Expected percent_a=100, got %v", data["percent_a"])
	}

	// same voter switching sides
	w = postJSON(router, "/v1/votes", "", models.SubmitVoteRequest{
		QuestionID: "tech_ai", VoterID: "voter-1", Vote: "b",
	})
	data = decodeEnvelope(t, w)["data"].(map[string]interface{})
	if data["already_voted"] != true {
		t.Errorf("Expected already_voted=true, got %v", data["already_voted"])
	}
	if data["total"].(float64) != 1 {
		t.Errorf("Changing a vote must not grow the total, got %v", data["total"])
	}

	w = getJSON(router, "/v1/votes/result?question_id=tech_ai")
	if w.Code != http.StatusOK {
		t.Fatalf("Result failed with %d", w.Code)
	}
	data = decodeEnvelope(t, w)["data"].(map[string]interface{})
	if data["count_b"].(float64) != 1 {
		t.Errorf("Expected count_b=1, got %v", data["count_b"])
	}

	w = getJSON(router, "/v1/votes/check?question_id=tech_ai&voter_id=voter-1")
	data = decodeEnvelope(t, w)["data"].(map[string]interface{})
	if data["voted"] != true || data["vote"] != "b" {
		t.Errorf("Expected voted=true vote=b, got %v", data)
	}
}

func TestVote_UnknownQuestionReturns404(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	w := postJSON(router, "/v1/votes", "", models.SubmitVoteRequest{
		QuestionID: "no-such-question", VoterID: "v", Vote: "a",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestQuestionCreate_IsGuarded(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	question := models.VoteQuestion{
		ID: "hist_decline", Question: "Is our civilization in decline?",
		OptionA: "In decline", OptionB: "Just adjusting", Domain: "H",
	}

	w := postJSON(router, "/v1/questions", "", question)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a key, got %d", w.Code)
	}

	w = postJSON(router, "/v1/questions", testAPIKey, question)
	if w.Code != http.StatusOK {
		t.Fatalf("Create failed with %d: %s", w.Code, w.Body.String())
	}

	// reserved catalog id
	w = postJSON(router, "/v1/questions", testAPIKey, models.VoteQuestion{
		ID: "tech_ai", Question: "q", OptionA: "a", OptionB: "b",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for a reserved id, got %d", w.Code)
	}
}

func TestAdmin_SeedDomains(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	w := postJSON(router, "/v1/admin/domains/seed", testAPIKey, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("SeedDomains failed with %d: %s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	if data["inserted"].(float64) != 6 {
		t.Errorf("Expected 6 seeded domains, got %v", data["inserted"])
	}

	w = getJSON(router, "/v1/articles/domains")
	data = decodeEnvelope(t, w)["data"].(map[string]interface{})
	domains := data["domains"].([]interface{})
	if len(domains) != 6 {
		t.Errorf("Expected 6 domains, got %d", len(domains))
	}
}

func TestTrendEndpoint(t *testing.T) {
	router, _ := setupTestRouter(testAPIKey)

	w := getJSON(router, "/v1/votes/trend?domain=T&days=30")
	if w.Code != http.StatusOK {
		t.Fatalf("Trend failed with %d: %s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	if data["days"].(float64) != 30 {
		t.Errorf("Expected days=30, got %v", data["days"])
	}

	w = getJSON(router, "/v1/votes/trend")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a domain, got %d", w.Code)
	}
}
