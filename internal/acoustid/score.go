package acoustid

import "fmt"

// ScoredRecording is a parsed recording with its relevance score.
type ScoredRecording struct {
	Recording
	// Score is on a 0-100 scale, already weighted by the result score.
	Score float64 `json:"score"`
	// AcoustID is the id of the result group the recording came from.
	AcoustID string `json:"acoustid"`
}

// Parse scores every recording of an ok document, in result then recording
// order. Recordings without an id are skipped but still count towards their
// group's maximum source count.
func Parse(doc Document) ([]ScoredRecording, error) {
	if doc.Status != StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrServiceStatus, doc.ServiceMessage())
	}
	var out []ScoredRecording
	for _, group := range doc.Results {
		resultScore := group.Score.Value()
		maxSources := 1
		for _, raw := range group.Recordings {
			maxSources = max(maxSources, raw.SourceCount())
		}
		for _, raw := range group.Recordings {
			rec, ok := ParseRecording(raw)
			if !ok {
				continue
			}
			sourceScore := float64(raw.SourceCount()) / float64(maxSources) * 100
			out = append(out, ScoredRecording{
				Recording: rec,
				Score:     sourceScore * resultScore,
				AcoustID:  group.ID,
			})
		}
	}
	return out, nil
}
