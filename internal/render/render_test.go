package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-feishu2md/docx"
)

func run(content string) *docx.TextRun {
	return &docx.TextRun{Content: content}
}

func textOf(elements ...docx.TextElement) *docx.Text {
	return &docx.Text{Elements: elements}
}

func node(id, parent string, typ docx.BlockType, payload docx.Payload, children ...string) docx.Block {
	return docx.Block{ID: id, ParentID: parent, Type: typ, Payload: payload, Children: children}
}

func page(children ...string) docx.Block {
	return node("doc", "", docx.BlockTypePage, textOf(run("Doc")), children...)
}

func paragraph(id, parent, content string) docx.Block {
	return node(id, parent, docx.BlockTypeText, textOf(run(content)))
}

func renderPage(t *testing.T, blocks ...docx.Block) Result {
	t.Helper()
	return Render("doc", blocks)
}

func TestRenderEmptyPage(t *testing.T) {
	result := Render("doc", []docx.Block{
		node("doc", "", docx.BlockTypePage, textOf(run("Title"))),
	})
	if result.Markdown != "# Title\n\n" {
		t.Fatalf("unexpected markdown: %q", result.Markdown)
	}
	if len(result.ImageTokens) != 0 {
		t.Fatalf("expected no image tokens, got %v", result.ImageTokens)
	}
}

func TestRenderMissingRoot(t *testing.T) {
	result := Render("nope", []docx.Block{page()})
	if diff := cmp.Diff(Result{}, result); diff != "" {
		t.Fatalf("expected empty result (-want +got):\n%s", diff)
	}
}

func TestRenderDocumentUsesDocumentID(t *testing.T) {
	result := RenderDocument(docx.Document{ID: "doc", Title: "Doc"}, []docx.Block{page()})
	if result.Markdown != "# Doc\n\n" {
		t.Fatalf("unexpected markdown: %q", result.Markdown)
	}
}

func TestRenderOrderedNumbering(t *testing.T) {
	ordered := func(id, content string) docx.Block {
		return node(id, "doc", docx.BlockTypeOrdered, textOf(run(content)))
	}
	result := renderPage(t,
		page("o1", "o2", "o3", "p", "o4"),
		ordered("o1", "a"),
		ordered("o2", "b"),
		ordered("o3", "c"),
		paragraph("p", "doc", "break"),
		ordered("o4", "d"),
	)

	want := "# Doc\n\n" +
		"1. a\n\n" +
		"2. b\n\n" +
		"3. c\n\n" +
		"break\n\n" +
		"1. d\n\n"
	if diff := cmp.Diff(want, result.Markdown); diff != "" {
		t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOrderedWithoutParent(t *testing.T) {
	result := Render("o", []docx.Block{
		node("o", "", docx.BlockTypeOrdered, textOf(run("solo"))),
	})
	if result.Markdown != "1. solo\n" {
		t.Fatalf("unexpected markdown: %q", result.Markdown)
	}
}

func TestRenderNestedLists(t *testing.T) {
	result := renderPage(t,
		page("b1"),
		node("b1", "doc", docx.BlockTypeBullet, textOf(run("one")), "b2", "o1"),
		node("b2", "b1", docx.BlockTypeBullet, textOf(run("two"))),
		node("o1", "b1", docx.BlockTypeOrdered, textOf(run("three")), "b3"),
		node("b3", "o1", docx.BlockTypeBullet, textOf(run("four"))),
	)

	want := "# Doc\n\n- one\n\t- two\n\t1. three\n\t\t- four\n\n"
	if diff := cmp.Diff(want, result.Markdown); diff != "" {
		t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderStylePriority(t *testing.T) {
	cases := []struct {
		name  string
		style docx.RunStyle
		want  string
	}{
		{"bold wins over italic", docx.RunStyle{Bold: true, Italic: true}, "**hi**\n"},
		{"italic", docx.RunStyle{Italic: true, Strikethrough: true}, "_hi_\n"},
		{"strikethrough", docx.RunStyle{Strikethrough: true, Underline: true}, "~~hi~~\n"},
		{"underline", docx.RunStyle{Underline: true, InlineCode: true}, "<u>hi</u>\n"},
		{"inline code over link", docx.RunStyle{InlineCode: true, Link: &docx.Link{URL: "https://x"}}, "`hi`\n"},
		{"link decoded", docx.RunStyle{Link: &docx.Link{URL: "https%3A%2F%2Fexample.com%2Fa%20b"}}, "[hi](https://example.com/a b)\n"},
		{"link kept on bad escape", docx.RunStyle{Link: &docx.Link{URL: "https://x/%zz"}}, "[hi](https://x/%zz)\n"},
		{"link kept on truncated utf8", docx.RunStyle{Link: &docx.Link{URL: "https%3A%2F%2Fa.b%2F%E4%B8"}}, "[hi](https%3A%2F%2Fa.b%2F%E4%B8)\n"},
		{"plain", docx.RunStyle{}, "hi\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := renderText(textOf(&docx.TextRun{Content: "hi", Style: tc.style}))
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRenderMentions(t *testing.T) {
	got := renderText(textOf(
		run("see "),
		&docx.MentionDoc{Title: "Other", URL: "https%3A%2F%2Fx%2Fy"},
		run(" by "),
		&docx.MentionUser{UserID: "ou_1"},
		&docx.MentionDoc{},
	))
	want := "see [Other](https://x/y) by ou_1[]()\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRenderEquationWidth(t *testing.T) {
	if got := renderText(textOf(&docx.Equation{Content: "E=mc^2\n"})); got != "$$E=mc^2$$\n" {
		t.Fatalf("lone equation: got %q", got)
	}
	if got := renderText(textOf(run("a "), &docx.Equation{Content: "E=mc^2\n"})); got != "a $E=mc^2$\n" {
		t.Fatalf("inline equation: got %q", got)
	}
	single := &docx.Text{Spans: 1, Elements: []docx.TextElement{run("a "), &docx.Equation{Content: "E=mc^2\n"}}}
	if got := renderText(single); got != "a $$E=mc^2$$\n" {
		t.Fatalf("equation sharing a lone span: got %q", got)
	}
	if got := renderText(textOf(&docx.Equation{Content: "x\n\n"})); got != "$$x\n$$\n" {
		t.Fatalf("only one trailing newline should be stripped, got %q", got)
	}
}

func TestRenderBlockTypes(t *testing.T) {
	cases := []struct {
		name   string
		blocks []docx.Block
		want   string
	}{
		{
			name: "heading keeps children flush",
			blocks: []docx.Block{
				node("root", "", docx.BlockTypeHeading2, textOf(run("H")), "p"),
				paragraph("p", "root", "body"),
			},
			want: "## H\nbody\n",
		},
		{
			name:   "heading nine",
			blocks: []docx.Block{node("root", "", docx.BlockTypeHeading9, textOf(run("deep")))},
			want:   "######### deep\n",
		},
		{
			name: "code with language",
			blocks: []docx.Block{node("root", "", docx.BlockTypeCode, &docx.Text{
				Style:    docx.TextStyle{Language: 22},
				Elements: []docx.TextElement{run("  fmt.Println()\n ")},
			})},
			want: "```go\nfmt.Println()\n```\n",
		},
		{
			name: "code with unknown language",
			blocks: []docx.Block{node("root", "", docx.BlockTypeCode, &docx.Text{
				Style:    docx.TextStyle{Language: 999},
				Elements: []docx.TextElement{run("x")},
			})},
			want: "```\nx\n```\n",
		},
		{
			name:   "code without payload",
			blocks: []docx.Block{node("root", "", docx.BlockTypeCode, nil)},
			want:   "```\n\n```\n",
		},
		{
			name:   "quote",
			blocks: []docx.Block{node("root", "", docx.BlockTypeQuote, textOf(run("said")))},
			want:   "> said\n",
		},
		{
			name:   "block equation",
			blocks: []docx.Block{node("root", "", docx.BlockTypeEquation, textOf(&docx.Equation{Content: "x"}))},
			want:   "$$\n$$x$$\n$$\n",
		},
		{
			name: "todo done",
			blocks: []docx.Block{node("root", "", docx.BlockTypeTodo, &docx.Text{
				Style:    docx.TextStyle{Done: true},
				Elements: []docx.TextElement{run("ship")},
			})},
			want: "- [x] ship\n",
		},
		{
			name:   "todo open",
			blocks: []docx.Block{node("root", "", docx.BlockTypeTodo, textOf(run("ship")))},
			want:   "- [ ] ship\n",
		},
		{
			name: "callout",
			blocks: []docx.Block{
				node("root", "", docx.BlockTypeCallout, nil, "p"),
				paragraph("p", "root", "tip"),
			},
			want: ">[!TIP] \ntip\n",
		},
		{
			name:   "divider",
			blocks: []docx.Block{node("root", "", docx.BlockTypeDivider, nil)},
			want:   "---\n",
		},
		{
			name:   "paragraph without payload",
			blocks: []docx.Block{node("root", "", docx.BlockTypeText, nil)},
			want:   "\n",
		},
		{
			name:   "image without payload",
			blocks: []docx.Block{node("root", "", docx.BlockTypeImage, nil)},
			want:   "",
		},
		{
			name: "quote container",
			blocks: []docx.Block{
				node("root", "", docx.BlockTypeQuoteContainer, nil, "a", "b"),
				paragraph("a", "root", "first"),
				paragraph("b", "root", "second"),
			},
			want: "> first\n> second\n",
		},
		{
			name: "grid flattens columns",
			blocks: []docx.Block{
				node("root", "", docx.BlockTypeGrid, nil, "c1", "c2"),
				node("c1", "root", docx.BlockTypeGridColumn, nil, "a"),
				node("c2", "root", docx.BlockTypeGridColumn, nil, "b"),
				paragraph("a", "c1", "left"),
				paragraph("b", "c2", "right"),
			},
			want: "left\nright\n",
		},
		{
			name: "table cell joins children",
			blocks: []docx.Block{
				node("root", "", docx.BlockTypeTableCell, nil, "a", "b"),
				paragraph("a", "root", "x"),
				paragraph("b", "root", "y"),
			},
			want: "x\n<br/>y\n<br/>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Render("root", tc.blocks).Markdown
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderSkipsUnknownAndMissingChildren(t *testing.T) {
	result := renderPage(t,
		page("u", "ghost", "p"),
		node("u", "doc", docx.BlockType(999), nil),
		paragraph("p", "doc", "still here"),
	)
	want := "# Doc\n\n\nstill here\n\n"
	if diff := cmp.Diff(want, result.Markdown); diff != "" {
		t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderCollectsImageTokens(t *testing.T) {
	result := renderPage(t,
		page("i1", "p", "i2", "i3"),
		node("i1", "doc", docx.BlockTypeImage, &docx.Image{Token: "tok"}),
		paragraph("p", "doc", "between"),
		node("i2", "doc", docx.BlockTypeImage, &docx.Image{Token: "other"}),
		node("i3", "doc", docx.BlockTypeImage, &docx.Image{Token: "tok"}),
	)

	if diff := cmp.Diff([]string{"tok", "other", "tok"}, result.ImageTokens); diff != "" {
		t.Fatalf("image tokens mismatch (-want +got):\n%s", diff)
	}
	if strings.Count(result.Markdown, "![](tok)\n") != 2 {
		t.Fatalf("expected two tok references, got %q", result.Markdown)
	}
}

func TestRenderTableWithRowSpan(t *testing.T) {
	cell := func(id, child string) docx.Block {
		return node(id, "tbl", docx.BlockTypeTableCell, nil, child)
	}
	result := Render("tbl", []docx.Block{
		node("tbl", "", docx.BlockTypeTable, &docx.Table{
			Rows:    2,
			Columns: 2,
			Cells:   []string{"c1", "c2", "c3", "c4"},
			Merges: map[int]docx.Merge{
				0: {RowSpan: 2, ColSpan: 1},
				1: {RowSpan: 1, ColSpan: 1},
				2: {RowSpan: 1, ColSpan: 1},
				3: {RowSpan: 1, ColSpan: 1},
			},
		}),
		cell("c1", "t1"), cell("c2", "t2"), cell("c3", "t3"), cell("c4", "t4"),
		paragraph("t1", "c1", "A"),
		paragraph("t2", "c2", "B"),
		paragraph("t3", "c3", "C"),
		paragraph("t4", "c4", "D"),
	})

	want := "<table>\n" +
		"<tr>\n<td rowspan=\"2\">A<br/></td><td>B<br/></td></tr>\n" +
		"<tr>\n<td>D<br/></td></tr>\n" +
		"</table>\n"
	if diff := cmp.Diff(want, result.Markdown); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
	if got := strings.Count(result.Markdown, "<td"); got != 3 {
		t.Fatalf("expected 3 cells, got %d", got)
	}
}

func TestRenderTableWithColSpanAndMissingCells(t *testing.T) {
	result := Render("tbl", []docx.Block{
		node("tbl", "", docx.BlockTypeTable, &docx.Table{
			Rows:    2,
			Columns: 3,
			Cells:   []string{"c1", "c2", "c3", "c4", "gone", "c6"},
			Merges:  map[int]docx.Merge{0: {RowSpan: 1, ColSpan: 2}},
		}),
		node("c1", "tbl", docx.BlockTypeTableCell, nil, "t1"),
		node("c2", "tbl", docx.BlockTypeTableCell, nil),
		node("c3", "tbl", docx.BlockTypeTableCell, nil),
		node("c4", "tbl", docx.BlockTypeTableCell, nil),
		node("c6", "tbl", docx.BlockTypeTableCell, nil),
		paragraph("t1", "c1", "wide\nline"),
	})

	want := "<table>\n" +
		"<tr>\n<td colspan=\"2\">wideline<br/></td><td></td></tr>\n" +
		"<tr>\n<td></td><td></td><td></td></tr>\n" +
		"</table>\n"
	if diff := cmp.Diff(want, result.Markdown); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderTableWithoutColumns(t *testing.T) {
	result := Render("tbl", []docx.Block{
		node("tbl", "", docx.BlockTypeTable, &docx.Table{Cells: []string{"c1"}}),
	})
	if result.Markdown != "<table>\n</table>\n" {
		t.Fatalf("unexpected markdown: %q", result.Markdown)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	blocks := []docx.Block{
		page("h", "o1", "o2", "img"),
		node("h", "doc", docx.BlockTypeHeading1, textOf(run("Intro"), &docx.Equation{Content: "x"})),
		node("o1", "doc", docx.BlockTypeOrdered, textOf(run("a"))),
		node("o2", "doc", docx.BlockTypeOrdered, textOf(run("b"))),
		node("img", "doc", docx.BlockTypeImage, &docx.Image{Token: "tok"}),
	}

	first := Render("doc", blocks)
	second := Render("doc", blocks)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated renders differ (-first +second):\n%s", diff)
	}
}

func TestCodeLanguage(t *testing.T) {
	cases := map[int]string{1: "", 2: "abap", 22: "go", 42: "openedge-abl", 67: "yaml", 0: "", 68: ""}
	for code, want := range cases {
		if got := CodeLanguage(code); got != want {
			t.Fatalf("CodeLanguage(%d) = %q, want %q", code, got, want)
		}
	}
	if len(codeLanguages) != 67 {
		t.Fatalf("expected 67 language entries, got %d", len(codeLanguages))
	}
}
