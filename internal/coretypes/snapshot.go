package coretypes

// SnapshotMode selects one of the four snapshot rendering strategies,
// spec §4.5.
type SnapshotMode string

const (
	ModeInteractive SnapshotMode = "interactive"
	ModeOutline     SnapshotMode = "outline"
	ModeContent     SnapshotMode = "content"
	ModeExtract     SnapshotMode = "extract"
)

// SnapshotFormat selects serialization for content/extract modes.
type SnapshotFormat string

const (
	FormatTree     SnapshotFormat = "tree"
	FormatHTML     SnapshotFormat = "html"
	FormatMarkdown SnapshotFormat = "markdown"
)

// GrepOptions mirrors spec §3's grep pattern: either a bare string (regex,
// case-sensitive) or the structured form.
type GrepOptions struct {
	Pattern      string
	IgnoreCase   bool
	Invert       bool
	FixedStrings bool
}

// SnapshotOptions are the inputs to the Snapshot Engine, spec §4.5.
type SnapshotOptions struct {
	Mode          SnapshotMode
	Format        SnapshotFormat
	Root          string // optional selector anchoring the walk; "" = document body
	MaxDepth      int
	IncludeHidden bool
	IncludeLinks  bool
	IncludeImages bool
	Grep          *GrepOptions
	MaxLength     int
}

// RefEntry is one row of SnapshotData.Refs: the sidecar lookup table for
// consumers that want role/name/selector without re-parsing the tree text.
type RefEntry struct {
	Selector string `json:"selector"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
}

// SnapshotMetadata carries the per-mode counters and quality flag, spec §3.
type SnapshotMetadata struct {
	Mode          SnapshotMode     `json:"mode"`
	CapturedCount int              `json:"capturedCount,omitempty"`
	Landmarks     int              `json:"landmarks,omitempty"`
	Sections      int              `json:"sections,omitempty"`
	Headings      int              `json:"headings,omitempty"`
	Words         int              `json:"words,omitempty"`
	GrepPattern   string           `json:"grepPattern,omitempty"`
	GrepMatches   int              `json:"grepMatches,omitempty"`
	Truncated     bool             `json:"truncated,omitempty"`
	Degraded      bool             `json:"degraded,omitempty"` // grep fell back to substring match
}

// SnapshotData is the Snapshot Engine's output, spec §3.
type SnapshotData struct {
	Tree     string              `json:"tree"`
	Refs     map[string]RefEntry `json:"refs"`
	Metadata SnapshotMetadata    `json:"metadata"`
}
