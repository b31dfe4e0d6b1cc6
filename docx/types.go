// Package docx models the content blocks returned by the Feishu/Lark docx API.
//
// The API encodes every block as one object with many optional payload fields
// (page, text, heading1..9, image, table, ...). Here a block carries exactly one
// Payload whose concrete type depends on the block type, so renderers switch on
// the payload instead of probing optional fields.
package docx

// Document is the metadata returned for a docx document.
type Document struct {
	ID         string `json:"document_id"`
	RevisionID int    `json:"revision_id"`
	Title      string `json:"title"`
}

// Block is one node of a document's content tree. Blocks reference each other
// by identifier; the root block shares its identifier with the document.
type Block struct {
	ID       string
	Type     BlockType
	ParentID string
	Children []string
	Payload  Payload
}

// Text returns the block's text payload, or nil when the block carries none.
func (b *Block) Text() *Text {
	if b == nil {
		return nil
	}
	text, _ := b.Payload.(*Text)
	return text
}

// Image returns the block's image payload, or nil.
func (b *Block) Image() *Image {
	if b == nil {
		return nil
	}
	image, _ := b.Payload.(*Image)
	return image
}

// Table returns the block's table payload, or nil.
func (b *Block) Table() *Table {
	if b == nil {
		return nil
	}
	table, _ := b.Payload.(*Table)
	return table
}

// Payload is the sealed set of block payload shapes.
type Payload interface {
	payload()
}

// Text is the payload shared by page, paragraph, heading, list, code, quote,
// equation, todo and callout blocks.
type Text struct {
	Style    TextStyle
	Elements []TextElement
	// Spans is the number of wire elements Elements was decoded from. Zero
	// means one span per element.
	Spans int
}

// TextStyle holds block-level text settings.
type TextStyle struct {
	Align    int
	Done     bool
	Folded   bool
	Language int
	Wrap     bool
}

// Image references externally stored image bytes through an opaque token.
type Image struct {
	Token  string
	Width  int
	Height int
}

// Table is a grid of cell block identifiers stored row-major.
type Table struct {
	Rows    int
	Columns int
	Cells   []string
	// Merges is keyed by the linear cell index (row*Columns + col) of the
	// top-left cell of each merged region.
	Merges map[int]Merge
}

// Merge describes how many rows and columns a cell spans.
type Merge struct {
	RowSpan int `json:"row_span"`
	ColSpan int `json:"col_span"`
}

// MergeAt returns the merge descriptor recorded for the given cell position.
func (t *Table) MergeAt(row, col int) (Merge, bool) {
	if t == nil || len(t.Merges) == 0 {
		return Merge{}, false
	}
	merge, ok := t.Merges[row*t.Columns+col]
	return merge, ok
}

func (*Text) payload()  {}
func (*Image) payload() {}
func (*Table) payload() {}

// TextElement is the sealed set of inline span shapes.
type TextElement interface {
	element()
}

// TextRun is a run of plain text with optional styling.
type TextRun struct {
	Content string
	Style   RunStyle
}

// RunStyle lists the inline style flags of a text run.
type RunStyle struct {
	Bold          bool
	Italic        bool
	Strikethrough bool
	Underline     bool
	InlineCode    bool
	Link          *Link
}

// Link is a hyperlink attached to a text run. URL is percent-encoded on the wire.
type Link struct {
	URL string
}

// MentionUser references a workspace user by identifier.
type MentionUser struct {
	UserID string
}

// MentionDoc references another document.
type MentionDoc struct {
	Token   string
	ObjType int
	URL     string
	Title   string
}

// Equation is an inline LaTeX-like expression.
type Equation struct {
	Content string
}

func (*TextRun) element()     {}
func (*MentionUser) element() {}
func (*MentionDoc) element()  {}
func (*Equation) element()    {}
