package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/daily-digest-api/internal/models"
)

// DefaultMinContentLength is the whitespace-collapsed content floor used
// when no deployment-specific value is configured.
const DefaultMinContentLength = 100

var whitespaceRegex = regexp.MustCompile(`\s+`)

// requiredFields must be present and non-blank after trimming.
// author_intro and insight became optional once guest authors without
// bios started appearing in batches.
var requiredFields = []string{"domain", "title", "author_name", "source", "source_url", "content"}

// Validator checks candidate articles against the active domain set and
// content policy. It is pure; no check touches the store.
type Validator struct {
	activeDomains map[string]bool
	minContentLen int
}

// NewValidator creates a validator for one batch. activeDomains is the
// cached active-domain code set; minContentLen <= 0 selects the default.
func NewValidator(activeDomains []string, minContentLen int) *Validator {
	if minContentLen <= 0 {
		minContentLen = DefaultMinContentLength
	}
	domains := make(map[string]bool, len(activeDomains))
	for _, d := range activeDomains {
		domains[d] = true
	}
	return &Validator{
		activeDomains: domains,
		minContentLen: minContentLen,
	}
}

// ValidateArticle validates a single candidate article
func (v *Validator) ValidateArticle(article *models.Article, index int) []models.ValidationError {
	var errors []models.ValidationError

	for _, field := range requiredFields {
		if strings.TrimSpace(fieldValue(article, field)) == "" {
			errors = append(errors, models.ValidationError{
				Index:   index,
				Field:   field,
				Code:    models.CodeValidation,
				Message: fmt.Sprintf("%s is required", field),
			})
		}
	}

	if domain := strings.TrimSpace(article.Domain); domain != "" && !v.activeDomains[domain] {
		errors = append(errors, models.ValidationError{
			Index:   index,
			Field:   "domain",
			Code:    models.CodeUnknownDomain,
			Message: "domain is not an active domain code",
			Value:   article.Domain,
		})
	}

	// Length counts runes after collapsing whitespace runs, so CJK text
	// and spaced Latin text measure comparably.
	if strings.TrimSpace(article.Content) != "" {
		collapsed := whitespaceRegex.ReplaceAllString(article.Content, "")
		if length := len([]rune(collapsed)); length < v.minContentLen {
			errors = append(errors, models.ValidationError{
				Index:   index,
				Field:   "content",
				Code:    models.CodeContentTooShort,
				Message: fmt.Sprintf("content has %d characters, minimum is %d", length, v.minContentLen),
			})
		}
	}

	return errors
}

// ValidateBatch validates every article before any write happens and
// aggregates all failures into one report. An empty result means the
// whole batch may be staged.
func (v *Validator) ValidateBatch(articles []models.Article) []models.ValidationError {
	var errors []models.ValidationError
	for i := range articles {
		errors = append(errors, v.ValidateArticle(&articles[i], i)...)
	}
	return errors
}

func fieldValue(article *models.Article, field string) string {
	switch field {
	case "domain":
		return article.Domain
	case "title":
		return article.Title
	case "author_name":
		return article.AuthorName
	case "source":
		return article.Source
	case "source_url":
		return article.SourceURL
	case "content":
		return article.Content
	default:
		return ""
	}
}
