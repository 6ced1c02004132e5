package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/daily-digest-api/internal/config"
	"github.com/daily-digest-api/internal/docstore"
	"github.com/daily-digest-api/internal/models"
	"github.com/rs/zerolog"
)

// voteService is the concrete implementation of VoteService. Aggregates
// are full rescans of the ledger on every call; per-question volume is
// small and a rescan can never drift from the underlying vote set.
type voteService struct {
	store docstore.Store
	cfg   *config.Config
	log   zerolog.Logger

	// static catalog entries resolve before the persisted collection and
	// shadow persisted rows with the same id
	static      map[string]models.VoteQuestion
	staticOrder []string

	loc *time.Location
}

// newVoteService creates a new VoteService
func newVoteService(store docstore.Store, staticQuestions []models.VoteQuestion, cfg *config.Config, log zerolog.Logger) *voteService {
	static := make(map[string]models.VoteQuestion, len(staticQuestions))
	order := make([]string, 0, len(staticQuestions))
	for _, q := range staticQuestions {
		if _, seen := static[q.ID]; seen {
			continue
		}
		static[q.ID] = q
		order = append(order, q.ID)
	}

	loc, err := time.LoadLocation(cfg.Vote.ReportingTimezone)
	if err != nil {
		log.Warn().Str("timezone", cfg.Vote.ReportingTimezone).Msg("Unknown reporting timezone, using UTC")
		loc = time.UTC
	}

	return &voteService{
		store:       store,
		cfg:         cfg,
		log:         log.With().Str("service", "vote").Logger(),
		static:      static,
		staticOrder: order,
		loc:         loc,
	}
}

// Submit records or changes one voter's choice and returns the fresh
// aggregate snapshot so the client needs no second round trip.
func (s *voteService) Submit(ctx context.Context, req *models.SubmitVoteRequest) (*models.SubmitResult, error) {
	if req == nil || strings.TrimSpace(req.QuestionID) == "" {
		return nil, models.NewError(models.CodeValidation, "question_id is required")
	}
	if strings.TrimSpace(req.VoterID) == "" {
		return nil, models.NewError(models.CodeValidation, "voter_id is required")
	}
	if !models.ValidChoices[req.Vote] {
		return nil, models.NewError(models.CodeValidation, "vote must be 'a' or 'b'")
	}

	question, err := s.resolveQuestion(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, models.NewError(models.CodeQuestionNotFound, fmt.Sprintf("unknown question: %s", req.QuestionID))
	}

	domain := question.Domain
	if domain == "" {
		domain = req.Domain
	}

	now := time.Now().UTC()
	existing, err := s.findVote(ctx, req.QuestionID, req.VoterID)
	if err != nil {
		return nil, err
	}

	alreadyVoted := existing != nil
	if alreadyVoted {
		update := map[string]interface{}{
			"vote":       req.Vote,
			"domain":     domain,
			"updated_at": now,
		}
		if err := s.store.UpsertByID(ctx, models.CollectionVotes, existing.ID, update); err != nil {
			return nil, models.WrapError(models.CodeStoreUnavailable, "update vote", err)
		}
	} else {
		vote := models.Vote{
			ID:         fmt.Sprintf("%s_%s", req.QuestionID, req.VoterID),
			QuestionID: req.QuestionID,
			VoterID:    req.VoterID,
			Vote:       req.Vote,
			Domain:     domain,
			CreatedAt:  now,
		}
		err := s.store.Insert(ctx, models.CollectionVotes, vote.ID, vote)
		if errors.Is(err, docstore.ErrAlreadyExists) {
			// two concurrent submissions from the same voter; last write wins
			alreadyVoted = true
			err = s.store.UpsertByID(ctx, models.CollectionVotes, vote.ID, map[string]interface{}{
				"vote":       req.Vote,
				"domain":     domain,
				"updated_at": now,
			})
		}
		if err != nil {
			return nil, models.WrapError(models.CodeStoreUnavailable, "insert vote", err)
		}
	}

	snapshot, err := s.snapshot(ctx, req.QuestionID, question)
	if err != nil {
		return nil, err
	}
	return &models.SubmitResult{VoteResult: *snapshot, AlreadyVoted: alreadyVoted}, nil
}

// Result returns the aggregate snapshot for one question.
func (s *voteService) Result(ctx context.Context, questionID string) (*models.VoteResult, error) {
	if strings.TrimSpace(questionID) == "" {
		return nil, models.NewError(models.CodeValidation, "question_id is required")
	}
	question, err := s.resolveQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, questionID, question)
}

// Check reports whether a voter has already voted on a question.
func (s *voteService) Check(ctx context.Context, questionID, voterID string) (*models.VoteCheck, error) {
	if strings.TrimSpace(questionID) == "" {
		return nil, models.NewError(models.CodeValidation, "question_id is required")
	}
	if strings.TrimSpace(voterID) == "" {
		return nil, models.NewError(models.CodeValidation, "voter_id is required")
	}

	existing, err := s.findVote(ctx, questionID, voterID)
	if err != nil {
		return nil, err
	}

	check := &models.VoteCheck{QuestionID: questionID}
	if existing != nil {
		check.Voted = true
		check.Vote = existing.Vote
	}
	return check, nil
}

// Create persists a question. Ids reserved by the static catalog are
// rejected so persisted edits cannot be silently shadowed.
func (s *voteService) Create(ctx context.Context, question *models.VoteQuestion) (*models.VoteQuestion, error) {
	if question == nil || strings.TrimSpace(question.ID) == "" {
		return nil, models.NewError(models.CodeValidation, "question id is required")
	}
	if strings.TrimSpace(question.Question) == "" ||
		strings.TrimSpace(question.OptionA) == "" ||
		strings.TrimSpace(question.OptionB) == "" {
		return nil, models.NewError(models.CodeValidation, "question, option_a and option_b are required")
	}
	if _, reserved := s.static[question.ID]; reserved {
		return nil, models.NewError(models.CodeAlreadyExists, "question id is reserved by the static catalog")
	}

	now := time.Now().UTC()
	stored := *question
	stored.CreatedAt = now
	stored.UpdatedAt = now

	err := s.store.Insert(ctx, models.CollectionQuestions, stored.ID, stored)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// keep the original created_at, refresh everything else
		err = s.store.UpsertByID(ctx, models.CollectionQuestions, stored.ID, map[string]interface{}{
			"question":   stored.Question,
			"option_a":   stored.OptionA,
			"option_b":   stored.OptionB,
			"context":    stored.Context,
			"domain":     stored.Domain,
			"updated_at": now,
		})
	}
	if err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "persist question", err)
	}

	s.log.Info().Str("question_id", stored.ID).Msg("Question persisted")
	return &stored, nil
}

// Trend groups one domain's votes by calendar day over a trailing
// window. Days without votes produce no record.
func (s *voteService) Trend(ctx context.Context, domain string, days int) (*models.TrendResult, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, models.NewError(models.CodeValidation, "domain is required")
	}

	if days <= 0 {
		days = s.cfg.Vote.TrendDefaultDays
	}
	if days < s.cfg.Vote.TrendMinDays {
		days = s.cfg.Vote.TrendMinDays
	}
	if days > s.cfg.Vote.TrendMaxDays {
		days = s.cfg.Vote.TrendMaxDays
	}

	since := time.Now().In(s.loc).AddDate(0, 0, -days)
	filter := docstore.Filter{}.
		Eq("domain", domain).
		Gte("created_at", since.UTC().Format(time.RFC3339))
	order := []docstore.Order{{Field: "created_at"}}

	docs, err := s.store.FindWhere(ctx, models.CollectionVotes, filter, order, 0, s.cfg.Vote.TrendScanLimit)
	if err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "load votes for trend", err)
	}
	votes := decodeAll[models.Vote](docs)

	type bucket struct{ a, b int }
	daily := make(map[string]*bucket)
	for _, v := range votes {
		day := v.CreatedAt.In(s.loc).Format("2006-01-02")
		entry, ok := daily[day]
		if !ok {
			entry = &bucket{}
			daily[day] = entry
		}
		if v.Vote == models.ChoiceA {
			entry.a++
		} else {
			entry.b++
		}
	}

	dates := make([]string, 0, len(daily))
	for day := range daily {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	trend := make([]models.TrendPoint, 0, len(dates))
	for _, day := range dates {
		entry := daily[day]
		total := entry.a + entry.b
		trend = append(trend, models.TrendPoint{
			Date:     day,
			CountA:   entry.a,
			CountB:   entry.b,
			Total:    total,
			PercentA: percent(entry.a, total),
		})
	}

	return &models.TrendResult{
		Domain:     domain,
		Days:       days,
		Trend:      trend,
		TotalVotes: len(votes),
	}, nil
}

// Stats merges static and persisted questions, static entries first,
// and returns the current snapshot for each.
func (s *voteService) Stats(ctx context.Context) (*models.StatsResult, error) {
	questions := make([]models.VoteQuestion, 0, len(s.staticOrder))
	for _, id := range s.staticOrder {
		questions = append(questions, s.static[id])
	}

	order := []docstore.Order{{Field: "created_at"}}
	docs, err := s.store.FindWhere(ctx, models.CollectionQuestions, docstore.Filter{}, order, 0, 0)
	if err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "load persisted questions", err)
	}
	for _, q := range decodeAll[models.VoteQuestion](docs) {
		if _, shadowed := s.static[q.ID]; shadowed {
			continue
		}
		questions = append(questions, q)
	}

	result := &models.StatsResult{Questions: make([]models.QuestionStats, 0, len(questions))}
	for i := range questions {
		snapshot, err := s.snapshot(ctx, questions[i].ID, &questions[i])
		if err != nil {
			return nil, err
		}
		result.Questions = append(result.Questions, models.QuestionStats{
			VoteQuestion: questions[i],
			Result:       *snapshot,
		})
	}
	return result, nil
}

// resolveQuestion checks the static catalog first, then the persisted
// collection. A nil question with nil error means not found.
func (s *voteService) resolveQuestion(ctx context.Context, id string) (*models.VoteQuestion, error) {
	if q, ok := s.static[id]; ok {
		return &q, nil
	}

	filter := docstore.Filter{}.Eq(docstore.FieldID, id)
	docs, err := s.store.FindWhere(ctx, models.CollectionQuestions, filter, nil, 0, 1)
	if err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "resolve question", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	decoded := decodeAll[models.VoteQuestion](docs)
	if len(decoded) == 0 {
		return nil, nil
	}
	return &decoded[0], nil
}

func (s *voteService) findVote(ctx context.Context, questionID, voterID string) (*models.Vote, error) {
	filter := docstore.Filter{}.Eq("question_id", questionID).Eq("voter_id", voterID)
	docs, err := s.store.FindWhere(ctx, models.CollectionVotes, filter, nil, 0, 1)
	if err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "look up vote", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	decoded := decodeAll[models.Vote](docs)
	if len(decoded) == 0 {
		return nil, nil
	}
	return &decoded[0], nil
}

// snapshot recomputes the aggregate for one question directly from the
// ledger.
func (s *voteService) snapshot(ctx context.Context, questionID string, question *models.VoteQuestion) (*models.VoteResult, error) {
	countA, err := s.store.CountWhere(ctx, models.CollectionVotes,
		docstore.Filter{}.Eq("question_id", questionID).Eq("vote", models.ChoiceA))
	if err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "count votes", err)
	}
	countB, err := s.store.CountWhere(ctx, models.CollectionVotes,
		docstore.Filter{}.Eq("question_id", questionID).Eq("vote", models.ChoiceB))
	if err != nil {
		return nil, models.WrapError(models.CodeStoreUnavailable, "count votes", err)
	}

	total := countA + countB
	result := &models.VoteResult{
		QuestionID: questionID,
		CountA:     countA,
		CountB:     countB,
		Total:      total,
		PercentA:   percent(countA, total),
		PercentB:   percent(countB, total),
	}
	if question != nil {
		result.Question = question.Question
		result.OptionA = question.OptionA
		result.OptionB = question.OptionB
	}
	return result, nil
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
