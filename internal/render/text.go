package render

import (
	"strings"

	"github.com/goliatone/go-feishu2md/docx"
	"github.com/goliatone/go-feishu2md/internal/links"
)

// renderText renders a text payload followed by a newline. A nil payload
// renders as a bare newline.
func renderText(text *docx.Text) string {
	if text == nil {
		return "\n"
	}
	var out strings.Builder
	spans := text.Spans
	if spans == 0 {
		spans = len(text.Elements)
	}
	inline := spans > 1
	for _, element := range text.Elements {
		out.WriteString(renderElement(element, inline))
	}
	out.WriteString("\n")
	return out.String()
}

func renderElement(element docx.TextElement, inline bool) string {
	switch el := element.(type) {
	case *docx.TextRun:
		return renderRun(el)
	case *docx.MentionUser:
		return el.UserID
	case *docx.MentionDoc:
		return "[" + el.Title + "](" + links.Unescape(el.URL) + ")"
	case *docx.Equation:
		symbol := "$$"
		if inline {
			symbol = "$"
		}
		return symbol + strings.TrimSuffix(el.Content, "\n") + symbol
	default:
		return ""
	}
}

// renderRun applies at most one style. When several flags are set the first in
// bold, italic, strikethrough, underline, inline code, link order wins.
func renderRun(run *docx.TextRun) string {
	style := run.Style
	switch {
	case style.Bold:
		return "**" + run.Content + "**"
	case style.Italic:
		return "_" + run.Content + "_"
	case style.Strikethrough:
		return "~~" + run.Content + "~~"
	case style.Underline:
		return "<u>" + run.Content + "</u>"
	case style.InlineCode:
		return "`" + run.Content + "`"
	case style.Link != nil:
		return "[" + run.Content + "](" + links.Unescape(style.Link.URL) + ")"
	default:
		return run.Content
	}
}
