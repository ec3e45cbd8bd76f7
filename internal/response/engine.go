// Package response turns a raw language-model answer into a framed,
// human-readable rendering, an isolated block of executable code, and the
// surrounding explanation.
//
// Every function in the package is pure: it reads an immutable string and
// returns new values, keeps no state between calls, and never fails.
// Malformed input degrades to a best-effort structure; "no code found" is
// reported through ok=false rather than an error.
package response

// Result is the outcome of processing one response.
type Result struct {
	Rendered    string  `json:"rendered" yaml:"rendered"`
	Code        string  `json:"code,omitempty" yaml:"code,omitempty"`
	Explanation string  `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Blocks      []Block `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

// HasCode reports whether executable code was found.
func (r Result) HasCode() bool { return r.Code != "" }

// HasExplanation reports whether any prose survived fence removal.
func (r Result) HasExplanation() bool { return r.Explanation != "" }

// Engine bundles a Segmenter and Renderer configuration.
type Engine struct {
	Segmenter Segmenter
	Renderer  Renderer
}

// Option configures an Engine.
type Option func(*Engine)

// WithWidth sets the frame width.
func WithWidth(width int) Option {
	return func(e *Engine) { e.Renderer.Width = width }
}

// WithMinColumnWidth sets the narrowest table column.
func WithMinColumnWidth(width int) Option {
	return func(e *Engine) { e.Renderer.MinColumnWidth = width }
}

// WithSectionBlankThreshold sets how many blank lines a result section tolerates.
func WithSectionBlankThreshold(n int) Option {
	return func(e *Engine) { e.Segmenter.SectionBlankThreshold = n }
}

// WithDecorator sets the styling applied to frame glyphs and labels.
func WithDecorator(d Decorator) Option {
	return func(e *Engine) { e.Renderer.Decorator = d }
}

// New returns an Engine with opts applied.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs the whole pipeline over raw. Empty input yields an empty
// rendering and no code or explanation.
func (e *Engine) Process(raw string) Result {
	if raw == "" {
		return Result{}
	}
	blocks := e.Segmenter.Segment(raw)
	res := Result{
		Rendered: e.Renderer.Render(blocks),
		Blocks:   blocks,
	}
	if code, ok := e.Segmenter.Extract(raw); ok {
		res.Code = code
	}
	if text, ok := Explain(raw); ok {
		res.Explanation = text
	}
	return res
}

// Process runs the pipeline with default settings.
func Process(raw string) Result {
	return New().Process(raw)
}
