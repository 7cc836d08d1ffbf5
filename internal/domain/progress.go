package domain

// ProgressEvent is a structured decode of one line of downloader
// output. Fields are independent; any subset may be present. Events are
// ephemeral and never persisted.
type ProgressEvent struct {
	Percent float64 `json:"percent,omitempty"`
	HasPct  bool    `json:"-"`
	Size    string  `json:"size,omitempty"`
	Speed   string  `json:"speed,omitempty"`
	ETA     string  `json:"eta,omitempty"`
}

// Empty reports whether the line carried no recognizable progress
// markers.
func (e ProgressEvent) Empty() bool {
	return !e.HasPct && e.Size == "" && e.Speed == "" && e.ETA == ""
}

// LineKind classifies one line of downloader output.
type LineKind int

const (
	LineNoise    LineKind = iota // no useful content
	LineProgress                 // carries progress markers
	LineLog                      // warning/error diagnostics worth surfacing
)
