package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// FrontMatter is the metadata written ahead of an exported document.
type FrontMatter struct {
	Title    string    `yaml:"title,omitempty"`
	Source   string    `yaml:"source,omitempty"`
	Token    string    `yaml:"token,omitempty"`
	Revision int       `yaml:"revision,omitempty"`
	Exported time.Time `yaml:"exported,omitempty"`
}

// ParseFrontMatter splits source into its front matter and Markdown body.
// Source without front matter yields a zero FrontMatter and the input as body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}

// Title returns the front matter title of markdown, or "" when the document
// has none or the block cannot be parsed.
func Title(markdown string) string {
	if !strings.HasPrefix(strings.TrimLeft(markdown, "\ufeff"), "---") {
		return ""
	}
	meta, _, err := ParseFrontMatter([]byte(markdown))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(meta.Title)
}

// WithFrontMatter prefixes body with a YAML front matter block.
func WithFrontMatter(meta FrontMatter, body string) (string, error) {
	encoded, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	var out strings.Builder
	out.WriteString("---\n")
	out.Write(encoded)
	out.WriteString("---\n\n")
	out.WriteString(body)
	return out.String(), nil
}
