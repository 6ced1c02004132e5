package service

import (
	"encoding/json"

	"github.com/daily-digest-api/internal/docstore"
)

// decodeAll unmarshals a result page into model values, skipping rows
// that fail to decode so one corrupt document cannot break a read.
func decodeAll[T any](docs []docstore.Document) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
