// Package render turns a flat docx block collection into Markdown.
//
// Blocks are indexed by identifier once per call and the tree is walked
// depth-first from the root block. Tables are emitted as HTML so merged cells
// survive, and image tokens are collected so callers can swap them for
// resolvable URLs.
package render

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-feishu2md/docx"
)

// Result is the output of a single render call.
type Result struct {
	Markdown string
	// ImageTokens lists every image token in document order, duplicates kept.
	ImageTokens []string
}

// RenderDocument renders the tree rooted at the document's own block.
func RenderDocument(doc docx.Document, blocks []docx.Block) Result {
	return Render(doc.ID, blocks)
}

// Render renders the tree rooted at rootID. An unknown root yields an empty
// result.
func Render(rootID string, blocks []docx.Block) Result {
	w := newWalker(blocks)
	root, ok := w.index[rootID]
	if !ok {
		return Result{}
	}
	markdown := w.block(root, 0)
	return Result{
		Markdown:    markdown,
		ImageTokens: w.images,
	}
}

// walker holds the per-call state: the identifier index and the image tokens
// seen so far.
type walker struct {
	index  map[string]*docx.Block
	images []string
}

func newWalker(blocks []docx.Block) *walker {
	index := make(map[string]*docx.Block, len(blocks))
	for i := range blocks {
		index[blocks[i].ID] = &blocks[i]
	}
	return &walker{index: index}
}

func (w *walker) lookup(id string) (*docx.Block, bool) {
	b, ok := w.index[id]
	return b, ok && b != nil
}

func (w *walker) block(b *docx.Block, depth int) string {
	var out strings.Builder
	out.WriteString(strings.Repeat("\t", depth))

	switch b.Type {
	case docx.BlockTypePage:
		out.WriteString(w.page(b))
	case docx.BlockTypeText:
		out.WriteString(renderText(b.Text()))
	case docx.BlockTypeHeading1, docx.BlockTypeHeading2, docx.BlockTypeHeading3,
		docx.BlockTypeHeading4, docx.BlockTypeHeading5, docx.BlockTypeHeading6,
		docx.BlockTypeHeading7, docx.BlockTypeHeading8, docx.BlockTypeHeading9:
		out.WriteString(w.heading(b))
	case docx.BlockTypeBullet:
		out.WriteString("- ")
		out.WriteString(renderText(b.Text()))
		out.WriteString(w.children(b, depth+1))
	case docx.BlockTypeOrdered:
		fmt.Fprintf(&out, "%d. ", w.orderOf(b))
		out.WriteString(renderText(b.Text()))
		out.WriteString(w.children(b, depth+1))
	case docx.BlockTypeCode:
		out.WriteString(code(b.Text()))
	case docx.BlockTypeQuote:
		out.WriteString("> ")
		out.WriteString(renderText(b.Text()))
	case docx.BlockTypeEquation:
		out.WriteString("$$\n")
		out.WriteString(renderText(b.Text()))
		out.WriteString("$$\n")
	case docx.BlockTypeTodo:
		out.WriteString(todo(b.Text()))
	case docx.BlockTypeCallout:
		out.WriteString(">[!TIP] \n")
		out.WriteString(w.children(b, 0))
	case docx.BlockTypeDivider:
		out.WriteString("---\n")
	case docx.BlockTypeImage:
		out.WriteString(w.image(b.Image()))
	case docx.BlockTypeTableCell:
		out.WriteString(w.tableCell(b))
	case docx.BlockTypeTable:
		out.WriteString(w.table(b.Table()))
	case docx.BlockTypeQuoteContainer:
		out.WriteString(w.quoteContainer(b))
	case docx.BlockTypeGrid:
		out.WriteString(w.grid(b, depth))
	}

	return out.String()
}

// children renders every resolvable child at the given depth.
func (w *walker) children(b *docx.Block, depth int) string {
	var out strings.Builder
	for _, id := range b.Children {
		if child, ok := w.lookup(id); ok {
			out.WriteString(w.block(child, depth))
		}
	}
	return out.String()
}

func (w *walker) page(b *docx.Block) string {
	var out strings.Builder
	out.WriteString("# ")
	out.WriteString(renderText(b.Text()))
	out.WriteString("\n")
	for _, id := range b.Children {
		if child, ok := w.lookup(id); ok {
			out.WriteString(w.block(child, 0))
			out.WriteString("\n")
		}
	}
	return out.String()
}

func (w *walker) heading(b *docx.Block) string {
	return strings.Repeat("#", b.Type.HeadingLevel()) + " " + renderText(b.Text()) + w.children(b, 0)
}

func code(text *docx.Text) string {
	language := 1
	if text != nil {
		language = text.Style.Language
	}
	content := strings.TrimSpace(renderText(text))
	return "```" + CodeLanguage(language) + "\n" + content + "\n```\n"
}

func todo(text *docx.Text) string {
	checkbox := "- [ ] "
	if text != nil && text.Style.Done {
		checkbox = "- [x] "
	}
	return checkbox + renderText(text)
}

func (w *walker) image(image *docx.Image) string {
	if image == nil {
		return ""
	}
	w.images = append(w.images, image.Token)
	return "![](" + image.Token + ")\n"
}

func (w *walker) tableCell(b *docx.Block) string {
	var out strings.Builder
	for _, id := range b.Children {
		if child, ok := w.lookup(id); ok {
			out.WriteString(w.block(child, 0))
			out.WriteString("<br/>")
		}
	}
	return out.String()
}

func (w *walker) quoteContainer(b *docx.Block) string {
	var out strings.Builder
	for _, id := range b.Children {
		if child, ok := w.lookup(id); ok {
			out.WriteString("> ")
			out.WriteString(w.block(child, 0))
		}
	}
	return out.String()
}

// grid flattens one level of column nesting: each column's children render at
// the grid's own depth.
func (w *walker) grid(b *docx.Block, depth int) string {
	var out strings.Builder
	for _, columnID := range b.Children {
		column, ok := w.lookup(columnID)
		if !ok {
			continue
		}
		for _, id := range column.Children {
			if child, ok := w.lookup(id); ok {
				out.WriteString(w.block(child, depth))
			}
		}
	}
	return out.String()
}
