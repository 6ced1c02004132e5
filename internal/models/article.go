package models

import (
	"time"
)

// Collection names in the document store.
const (
	CollectionArticles  = "daily_articles"
	CollectionPodcast   = "podcast_articles"
	CollectionDomains   = "domains"
	CollectionVotes     = "votes"
	CollectionQuestions = "vote_questions"
)

// Article is one piece of published daily content. The document id is
// deterministic (date_domain_ordinal) so republishing the same batch
// lands on the same rows.
type Article struct {
	ID          string    `json:"_id,omitempty"`
	Date        string    `json:"date"`
	Domain      string    `json:"domain"`
	Title       string    `json:"title"`
	AuthorName  string    `json:"author_name"`
	AuthorIntro string    `json:"author_intro,omitempty"`
	Source      string    `json:"source"`
	SourceURL   string    `json:"source_url"`
	Content     string    `json:"content"`
	Insight     string    `json:"insight,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`

	// Pending marks a row staged by an in-flight publish. Committed rows
	// carry pending=false or no pending key at all.
	Pending bool `json:"pending,omitempty"`
}

// PodcastArticle is the weekly podcast variant of Article with media
// fields. Replacement per date is unstaged; the content is lower stakes.
type PodcastArticle struct {
	ID              string    `json:"_id,omitempty"`
	Date            string    `json:"date"`
	Domain          string    `json:"domain"`
	Title           string    `json:"title"`
	VideoID         string    `json:"video_id"`
	Channel         string    `json:"channel"`
	Duration        string    `json:"duration,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Views           int64     `json:"views,omitempty"`
	PublishedAt     string    `json:"published_at,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	WhyListen       string    `json:"why_listen,omitempty"`
	YouTubeURL      string    `json:"youtube_url,omitempty"`
	Score           float64   `json:"score,omitempty"`
	LikeCount       int64     `json:"like_count,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// Domain is a content category with a stable short code. Seeded once by
// the admin seed routine and read-only to the pipelines.
type Domain struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Question  string `json:"question"`
	YesLabel  string `json:"yes_label"`
	NoLabel   string `json:"no_label"`
	SortOrder int    `json:"sort_order"`
	Active    bool   `json:"active"`
}

// PublishRequest is the typed input for a daily article publish.
type PublishRequest struct {
	Date     string    `json:"date"`
	Articles []Article `json:"articles"`
}

// PodcastPublishRequest is the typed input for a podcast publish.
type PodcastPublishRequest struct {
	Date     string           `json:"date"`
	Articles []PodcastArticle `json:"articles"`
}

// PublishResult reports a completed publish.
type PublishResult struct {
	Inserted int    `json:"inserted"`
	Date     string `json:"date"`
}

// TodayResult is the latest committed batch plus the active domain list.
type TodayResult struct {
	Date     string    `json:"date"`
	Articles []Article `json:"articles"`
	Domains  []Domain  `json:"domains"`
	Total    int       `json:"total"`
}

// ArchiveResult is one page of committed rows before the latest date.
type ArchiveResult struct {
	Articles []Article `json:"articles"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	HasMore  bool      `json:"hasMore"`
}

// SearchResult holds keyword matches over title and content.
type SearchResult struct {
	Keyword  string    `json:"keyword"`
	Articles []Article `json:"articles"`
	Total    int       `json:"total"`
}

// PodcastLatestResult is the most recent podcast batch.
type PodcastLatestResult struct {
	Date     string           `json:"date"`
	Articles []PodcastArticle `json:"articles"`
	Total    int              `json:"total"`
}

// PodcastArchiveResult is one page of podcast rows before the latest date.
type PodcastArchiveResult struct {
	Articles []PodcastArticle `json:"articles"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	HasMore  bool             `json:"hasMore"`
}
