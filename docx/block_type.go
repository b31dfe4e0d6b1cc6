package docx

import "fmt"

// BlockType mirrors the integer block_type values emitted by the docx API.
type BlockType int

const (
	BlockTypePage           BlockType = 1
	BlockTypeText           BlockType = 2
	BlockTypeHeading1       BlockType = 3
	BlockTypeHeading2       BlockType = 4
	BlockTypeHeading3       BlockType = 5
	BlockTypeHeading4       BlockType = 6
	BlockTypeHeading5       BlockType = 7
	BlockTypeHeading6       BlockType = 8
	BlockTypeHeading7       BlockType = 9
	BlockTypeHeading8       BlockType = 10
	BlockTypeHeading9       BlockType = 11
	BlockTypeBullet         BlockType = 12
	BlockTypeOrdered        BlockType = 13
	BlockTypeCode           BlockType = 14
	BlockTypeQuote          BlockType = 15
	BlockTypeEquation       BlockType = 16
	BlockTypeTodo           BlockType = 17
	BlockTypeCallout        BlockType = 19
	BlockTypeChatCard       BlockType = 20
	BlockTypeDiagram        BlockType = 21
	BlockTypeDivider        BlockType = 22
	BlockTypeFile           BlockType = 23
	BlockTypeGrid           BlockType = 24
	BlockTypeGridColumn     BlockType = 25
	BlockTypeIframe         BlockType = 26
	BlockTypeImage          BlockType = 27
	BlockTypeISV            BlockType = 28
	BlockTypeMindnote       BlockType = 29
	BlockTypeSheet          BlockType = 30
	BlockTypeTable          BlockType = 31
	BlockTypeTableCell      BlockType = 32
	BlockTypeView           BlockType = 33
	BlockTypeQuoteContainer BlockType = 34
)

var blockTypeNames = map[BlockType]string{
	BlockTypePage:           "page",
	BlockTypeText:           "text",
	BlockTypeHeading1:       "heading1",
	BlockTypeHeading2:       "heading2",
	BlockTypeHeading3:       "heading3",
	BlockTypeHeading4:       "heading4",
	BlockTypeHeading5:       "heading5",
	BlockTypeHeading6:       "heading6",
	BlockTypeHeading7:       "heading7",
	BlockTypeHeading8:       "heading8",
	BlockTypeHeading9:       "heading9",
	BlockTypeBullet:         "bullet",
	BlockTypeOrdered:        "ordered",
	BlockTypeCode:           "code",
	BlockTypeQuote:          "quote",
	BlockTypeEquation:       "equation",
	BlockTypeTodo:           "todo",
	BlockTypeCallout:        "callout",
	BlockTypeChatCard:       "chat_card",
	BlockTypeDiagram:        "diagram",
	BlockTypeDivider:        "divider",
	BlockTypeFile:           "file",
	BlockTypeGrid:           "grid",
	BlockTypeGridColumn:     "grid_column",
	BlockTypeIframe:         "iframe",
	BlockTypeImage:          "image",
	BlockTypeISV:            "isv",
	BlockTypeMindnote:       "mindnote",
	BlockTypeSheet:          "sheet",
	BlockTypeTable:          "table",
	BlockTypeTableCell:      "table_cell",
	BlockTypeView:           "view",
	BlockTypeQuoteContainer: "quote_container",
}

// String returns the wire field name associated with the block type. Unknown
// values render as "block_type(N)".
func (t BlockType) String() string {
	if name, ok := blockTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("block_type(%d)", int(t))
}

// Known reports whether the block type is one of the documented values.
func (t BlockType) Known() bool {
	_, ok := blockTypeNames[t]
	return ok
}

// HeadingLevel returns the 1-9 heading level, or 0 when the type is not a heading.
func (t BlockType) HeadingLevel() int {
	if t >= BlockTypeHeading1 && t <= BlockTypeHeading9 {
		return int(t-BlockTypeHeading1) + 1
	}
	return 0
}

// CarriesText reports whether blocks of this type hold a text payload.
func (t BlockType) CarriesText() bool {
	switch t {
	case BlockTypePage, BlockTypeText, BlockTypeBullet, BlockTypeOrdered, BlockTypeCode,
		BlockTypeQuote, BlockTypeEquation, BlockTypeTodo, BlockTypeCallout:
		return true
	}
	return t.HeadingLevel() > 0
}
