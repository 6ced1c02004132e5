package config

import (
	"fmt"
	"os"

	"github.com/daily-digest-api/internal/models"
	"gopkg.in/yaml.v3"
)

type questionsFile struct {
	Questions []models.VoteQuestion `yaml:"questions"`
}

// LoadQuestions reads the static question catalog. Catalog entries are
// pre-vetted, versioned prompts; they take precedence over persisted
// rows with the same id. A missing path yields an empty catalog.
func LoadQuestions(path string) ([]models.VoteQuestion, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}

	var file questionsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}

	for i, q := range file.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("questions file: entry %d has no id", i)
		}
		if q.Question == "" || q.OptionA == "" || q.OptionB == "" {
			return nil, fmt.Errorf("questions file: entry %q is incomplete", q.ID)
		}
	}

	return file.Questions, nil
}
