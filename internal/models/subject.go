package models

import (
	"fmt"
	"strings"
)

// Subject is a selectable point on the cosmological timeline.
type Subject struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category,omitempty"`
	TimeNorm    float64 `json:"time_norm"`
	TimeRange   string  `json:"time_range,omitempty"`
	Description string  `json:"description,omitempty"`
	MediaURL    string  `json:"media_url,omitempty"`
	EpochID     *int64  `json:"epoch_id,omitempty"`
}

// Valid reports whether the subject can be rendered.
func (s Subject) Valid() bool {
	return s.ID > 0 && strings.TrimSpace(s.Title) != "" && s.TimeNorm >= 0 && s.TimeNorm <= 1
}

// TimeLabel renders the normalized time as shown next to the selection.
func (s Subject) TimeLabel() string {
	return fmt.Sprintf("%s · normalized %.3f%%", s.Title, s.TimeNorm*100)
}
