package markdown

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

// defaultExtensions apply when no extensions are configured. Feishu documents
// are often written in Chinese or Japanese, so CJK line handling is on.
var defaultExtensions = []string{"gfm", "linkify", "tasklist", "cjk"}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
	"cjk":           extension.CJK,
	"typographer":   extension.Typographer,
}

// GoldmarkParser renders shared documents into HTML. Engines are built once
// per distinct option set and reused.
type GoldmarkParser struct {
	defaults interfaces.ParseOptions

	mu      sync.Mutex
	engines map[string]goldmark.Markdown
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

// NewGoldmarkParser constructs a parser. Converted documents carry raw HTML
// tables and underline tags, so raw HTML passes through unless SafeMode is set.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{
		defaults: defaults,
		engines:  map[string]goldmark.Markdown{},
	}
}

// Parse renders Markdown with the parser defaults.
func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaults)
}

// ParseWithOptions renders Markdown with opts.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.engine(opts).Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *GoldmarkParser) engine(opts interfaces.ParseOptions) goldmark.Markdown {
	names := extensionNames(opts.Extensions)
	key := fmt.Sprintf("%s|%t|%t", strings.Join(names, ","), opts.HardWraps, opts.SafeMode)

	p.mu.Lock()
	defer p.mu.Unlock()
	if engine, ok := p.engines[key]; ok {
		return engine
	}
	engine := newGoldmarkEngine(names, opts)
	p.engines[key] = engine
	return engine
}

func newGoldmarkEngine(names []string, opts interfaces.ParseOptions) goldmark.Markdown {
	extenders := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		extenders = append(extenders, extensionRegistry[name])
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
		goldmark.WithExtensions(extenders...),
	)
}

// extensionNames normalises configured names, drops unknown and duplicate
// entries and sorts the rest so equivalent configurations share an engine.
func extensionNames(configured []string) []string {
	if len(configured) == 0 {
		configured = defaultExtensions
	}
	names := make([]string, 0, len(configured))
	for _, name := range configured {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := extensionRegistry[key]; !ok || slices.Contains(names, key) {
			continue
		}
		names = append(names, key)
	}
	slices.Sort(names)
	return names
}
