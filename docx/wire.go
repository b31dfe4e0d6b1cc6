package docx

import (
	"encoding/json"
	"fmt"
)

type wireHeader struct {
	BlockID   string   `json:"block_id"`
	ParentID  string   `json:"parent_id"`
	Children  []string `json:"children"`
	BlockType int      `json:"block_type"`
}

type wireText struct {
	Style    *wireTextStyle `json:"style"`
	Elements []wireElement  `json:"elements"`
}

type wireTextStyle struct {
	Align    int  `json:"align"`
	Done     bool `json:"done"`
	Folded   bool `json:"folded"`
	Language int  `json:"language"`
	Wrap     bool `json:"wrap"`
}

type wireElement struct {
	TextRun     *wireTextRun     `json:"text_run"`
	MentionUser *wireMentionUser `json:"mention_user"`
	MentionDoc  *wireMentionDoc  `json:"mention_doc"`
	Equation    *wireEquation    `json:"equation"`
}

type wireTextRun struct {
	Content string        `json:"content"`
	Style   *wireRunStyle `json:"text_element_style"`
}

type wireRunStyle struct {
	Bold          bool      `json:"bold"`
	Italic        bool      `json:"italic"`
	Strikethrough bool      `json:"strikethrough"`
	Underline     bool      `json:"underline"`
	InlineCode    bool      `json:"inline_code"`
	Link          *wireLink `json:"link"`
}

type wireLink struct {
	URL string `json:"url"`
}

type wireMentionUser struct {
	UserID string `json:"user_id"`
}

type wireMentionDoc struct {
	Token   string `json:"token"`
	ObjType int    `json:"obj_type"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

type wireEquation struct {
	Content string `json:"content"`
}

type wireImage struct {
	Token  string `json:"token"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type wireTable struct {
	Cells    []string `json:"cells"`
	Property struct {
		RowSize    int     `json:"row_size"`
		ColumnSize int     `json:"column_size"`
		MergeInfo  []Merge `json:"merge_info"`
	} `json:"property"`
}

// UnmarshalJSON decodes the API's flat block object, keeping only the payload
// field that matches block_type.
func (b *Block) UnmarshalJSON(data []byte) error {
	var header wireHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("docx: decode block header: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("docx: decode block %s: %w", header.BlockID, err)
	}

	decoded := Block{
		ID:       header.BlockID,
		Type:     BlockType(header.BlockType),
		ParentID: header.ParentID,
		Children: header.Children,
	}

	raw, ok := fields[decoded.Type.String()]
	if !ok || isJSONNull(raw) {
		*b = decoded
		return nil
	}

	payload, err := decodePayload(decoded.Type, raw)
	if err != nil {
		return fmt.Errorf("docx: decode %s payload of block %s: %w", decoded.Type, decoded.ID, err)
	}
	decoded.Payload = payload
	*b = decoded
	return nil
}

// DecodeBlocks decodes a JSON array of API block objects.
func DecodeBlocks(data []byte) ([]Block, error) {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func decodePayload(t BlockType, raw json.RawMessage) (Payload, error) {
	switch {
	case t.CarriesText():
		var text wireText
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		return text.toPayload(), nil
	case t == BlockTypeImage:
		var image wireImage
		if err := json.Unmarshal(raw, &image); err != nil {
			return nil, err
		}
		return &Image{Token: image.Token, Width: image.Width, Height: image.Height}, nil
	case t == BlockTypeTable:
		var table wireTable
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, err
		}
		return table.toPayload(), nil
	default:
		return nil, nil
	}
}

func (w wireText) toPayload() *Text {
	text := &Text{}
	if w.Style != nil {
		text.Style = TextStyle{
			Align:    w.Style.Align,
			Done:     w.Style.Done,
			Folded:   w.Style.Folded,
			Language: w.Style.Language,
			Wrap:     w.Style.Wrap,
		}
	}
	if len(w.Elements) > 0 {
		text.Elements = make([]TextElement, 0, len(w.Elements))
		text.Spans = len(w.Elements)
	}
	for _, element := range w.Elements {
		text.Elements = append(text.Elements, element.toElements()...)
	}
	return text
}

// toElements decodes every populated field of a span, in text run, user
// mention, document mention, equation order. A span with no known field
// decodes as an empty run.
func (w wireElement) toElements() []TextElement {
	var out []TextElement
	if w.TextRun != nil {
		run := &TextRun{Content: w.TextRun.Content}
		if style := w.TextRun.Style; style != nil {
			run.Style = RunStyle{
				Bold:          style.Bold,
				Italic:        style.Italic,
				Strikethrough: style.Strikethrough,
				Underline:     style.Underline,
				InlineCode:    style.InlineCode,
			}
			if style.Link != nil {
				run.Style.Link = &Link{URL: style.Link.URL}
			}
		}
		out = append(out, run)
	}
	if w.MentionUser != nil {
		out = append(out, &MentionUser{UserID: w.MentionUser.UserID})
	}
	if w.MentionDoc != nil {
		out = append(out, &MentionDoc{
			Token:   w.MentionDoc.Token,
			ObjType: w.MentionDoc.ObjType,
			URL:     w.MentionDoc.URL,
			Title:   w.MentionDoc.Title,
		})
	}
	if w.Equation != nil {
		out = append(out, &Equation{Content: w.Equation.Content})
	}
	if len(out) == 0 {
		return []TextElement{&TextRun{}}
	}
	return out
}

func (w wireTable) toPayload() *Table {
	table := &Table{
		Rows:    w.Property.RowSize,
		Columns: w.Property.ColumnSize,
		Cells:   w.Cells,
	}
	if len(w.Property.MergeInfo) > 0 {
		table.Merges = make(map[int]Merge, len(w.Property.MergeInfo))
		for idx, merge := range w.Property.MergeInfo {
			table.Merges[idx] = merge
		}
	}
	return table
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
