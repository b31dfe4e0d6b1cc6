package testsupport

import (
	"encoding/json"
	"os"

	"github.com/goliatone/go-feishu2md/docx"
)

func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// LoadBlocks decodes a JSON array of API blocks from path.
func LoadBlocks(path string) ([]docx.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return docx.DecodeBlocks(data)
}

// Page builds a root page block titled title.
func Page(id, title string, children ...string) docx.Block {
	return TextBlock(id, docx.BlockTypePage, title, children...)
}

// TextBlock builds a block of a text-carrying type with a single plain run.
func TextBlock(id string, typ docx.BlockType, content string, children ...string) docx.Block {
	return docx.Block{
		ID:       id,
		Type:     typ,
		Children: children,
		Payload: &docx.Text{
			Elements: []docx.TextElement{&docx.TextRun{Content: content}},
		},
	}
}

// ImageBlock builds an image block referencing token.
func ImageBlock(id, token string) docx.Block {
	return docx.Block{
		ID:      id,
		Type:    docx.BlockTypeImage,
		Payload: &docx.Image{Token: token},
	}
}
