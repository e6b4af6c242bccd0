package models

// Epoch is a named span of the normalized timeline.
type Epoch struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	StartNorm   float64 `json:"start_norm"`
	EndNorm     float64 `json:"end_norm"`
	Description string  `json:"description,omitempty"`
}

// Contains reports whether timeNorm falls inside the epoch.
func (e Epoch) Contains(timeNorm float64) bool {
	return timeNorm >= e.StartNorm && timeNorm <= e.EndNorm
}

// Annotation is a note pinned to a point inside an epoch.
type Annotation struct {
	ID       int64   `json:"id"`
	EpochID  int64   `json:"-"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	TimeMark float64 `json:"time_mark"`
}

// EpochDetail is an epoch together with its annotations.
type EpochDetail struct {
	Epoch
	Annotations []Annotation `json:"annotations"`
}

// Element is a particle or structure that appears during cosmic history.
type Element struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	ChargeRange string   `json:"charge_range,omitempty"`
	MassGeV     *float64 `json:"mass_gev,omitempty"`
	GenesisTime string   `json:"genesis_time,omitempty"`
}
