package debug

// TableLoadedData describes a glyph table that became available.
type TableLoadedData struct {
	Profile  string `json:"profile"`
	Source   string `json:"source"`
	Glyphs   int    `json:"glyphs"`
	Notdef   bool   `json:"notdef"`
	Warnings int    `json:"warnings"`
	Cached   bool   `json:"cached"`
}

// TableDegradedData describes a table or legend that failed to load.
type TableDegradedData struct {
	Resource string `json:"resource"`
	Source   string `json:"source"`
	Error    string `json:"error"`
}

// NormalizeData summarises the normalizer and filter output.
type NormalizeData struct {
	InputRunes   int      `json:"input_runes"`
	OutputRunes  int      `json:"output_runes"`
	Placeholders int      `json:"placeholders"`
	Legend       bool     `json:"legend"`
	Modes        []string `json:"modes"`
}

// LayoutStartData contains the configuration of a layout pass.
type LayoutStartData struct {
	Profile  string `json:"profile"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	MarginPx int    `json:"margin_px"`
	Scale    int    `json:"scale"`
	LineGap  int    `json:"line_gap"`
	Compact  bool   `json:"compact"`
	Runes    int    `json:"runes"`
}

// LayoutEndData contains the final state of a layout pass.
type LayoutEndData struct {
	Pages  int `json:"pages"`
	Lines  int `json:"lines"`
	Tokens int `json:"tokens"`
	Glyphs int `json:"glyphs"`
	Wraps  int `json:"wraps"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// GlyphData contains information about a placed glyph.
type GlyphData struct {
	Page    int    `json:"page"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Rune    rune   `json:"rune"`
	Advance int    `json:"advance"`
	Kind    string `json:"kind"` // "glyph", "notdef", "empty", "placeholder"
}

// WrapData contains information about a soft line wrap.
type WrapData struct {
	Page int `json:"page"`
	Y    int `json:"y"`
}

// PageData contains information about a new page.
type PageData struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"` // "wrap", "newline"
}

// YieldData contains information about a cooperative yield.
type YieldData struct {
	Percent int `json:"percent"`
	Pages   int `json:"pages"`
}

// ExportData contains information about a written page artifact.
type ExportData struct {
	Page   int    `json:"page"`
	Path   string `json:"path"`
	Format string `json:"format"`
	Bytes  int64  `json:"bytes"`
}

// ErrorData contains error information.
type ErrorData struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// SessionStartData opens a trace.
type SessionStartData struct {
	Tool string `json:"tool"`
	PID  int    `json:"pid"`
}

// SessionEndData closes a trace.
type SessionEndData struct {
	ElapsedMS int64 `json:"elapsed_ms"`
}
