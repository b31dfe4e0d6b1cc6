package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

func TestFrontMatterRoundTrip(t *testing.T) {
	exported := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	meta := FrontMatter{
		Title:    "Weekly: notes",
		Source:   "https://example.feishu.cn/docx/AbC123",
		Token:    "AbC123",
		Revision: 42,
		Exported: exported,
	}

	out, err := WithFrontMatter(meta, "# Weekly: notes\n\nbody\n")
	if err != nil {
		t.Fatalf("WithFrontMatter: %v", err)
	}
	if !strings.HasPrefix(out, "---\n") || !strings.HasSuffix(out, "---\n\n# Weekly: notes\n\nbody\n") {
		t.Fatalf("unexpected document layout: %q", out)
	}

	parsed, body, err := ParseFrontMatter([]byte(out))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if parsed.Title != meta.Title || parsed.Token != meta.Token || parsed.Revision != 42 {
		t.Fatalf("front matter mismatch: %+v", parsed)
	}
	if !parsed.Exported.Equal(exported) {
		t.Fatalf("expected exported %v, got %v", exported, parsed.Exported)
	}
	if !strings.Contains(string(body), "# Weekly: notes") {
		t.Fatalf("expected markdown body, got %q", string(body))
	}
}

func TestTitle(t *testing.T) {
	cases := map[string]string{
		"---\ntitle: From Meta\n---\n# Heading\n": "From Meta",
		"---\nsource: x\n---\nbody\n":             "",
		"# Heading only\n":                        "",
		"":                                        "",
	}
	for input, want := range cases {
		if got := Title(input); got != want {
			t.Fatalf("Title(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world** and <u>under</u>\n\n- [x] done\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include <h1>Heading</h1>, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
	if !strings.Contains(got, "<u>under</u>") {
		t.Fatalf("expected raw HTML to pass through, got %q", got)
	}
	if !strings.Contains(got, `type="checkbox"`) {
		t.Fatalf("expected task list checkbox, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}

	safe, err := parser.ParseWithOptions([]byte("<table><tr><td>x</td></tr></table>\n"), interfaces.ParseOptions{SafeMode: true})
	if err != nil {
		t.Fatalf("ParseWithOptions safe: %v", err)
	}
	if strings.Contains(string(safe), "<td>") {
		t.Fatalf("expected raw HTML to be omitted in safe mode, got %q", string(safe))
	}
}

func TestExtensionNames(t *testing.T) {
	got := extensionNames([]string{" Tables ", "gfm", "unknown", "GFM", ""})
	want := []string{"gfm", "tables"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if defaults := extensionNames(nil); len(defaults) != len(defaultExtensions) {
		t.Fatalf("expected default extensions, got %v", defaults)
	}
}

func TestGoldmarkParserReusesEngines(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	first := parser.engine(interfaces.ParseOptions{Extensions: []string{"table", "footnote"}})
	second := parser.engine(interfaces.ParseOptions{Extensions: []string{"footnote", "table"}})
	if first != second {
		t.Fatal("expected equivalent options to share an engine")
	}
	parser.engine(interfaces.ParseOptions{SafeMode: true})
	if len(parser.engines) != 2 {
		t.Fatalf("expected 2 cached engines, got %d", len(parser.engines))
	}
}
