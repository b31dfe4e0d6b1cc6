// Package ditesting provides an in-memory open platform for container and
// façade tests.
package ditesting

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-feishu2md/docx"
	"github.com/goliatone/go-feishu2md/internal/feishu"
)

// Platform serves documents, wiki nodes and images from memory. It satisfies
// both the document and media source contracts.
type Platform struct {
	mu        sync.Mutex
	docs      map[string]docx.Document
	blocks    map[string][]docx.Block
	nodes     map[string]feishu.WikiNode
	media     map[string][]byte
	downloads map[string]int
}

// NewPlatform constructs an empty platform.
func NewPlatform() *Platform {
	return &Platform{
		docs:      map[string]docx.Document{},
		blocks:    map[string][]docx.Block{},
		nodes:     map[string]feishu.WikiNode{},
		media:     map[string][]byte{},
		downloads: map[string]int{},
	}
}

// AddDocument registers a document and its blocks.
func (p *Platform) AddDocument(doc docx.Document, blocks ...docx.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[doc.ID] = doc
	p.blocks[doc.ID] = blocks
}

// AddWikiNode maps a wiki token to the object it wraps.
func (p *Platform) AddWikiNode(token string, node feishu.WikiNode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[token] = node
}

// AddImage registers image bytes under token.
func (p *Platform) AddImage(token string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.media[token] = data
}

// Downloads reports how often token was downloaded.
func (p *Platform) Downloads(token string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.downloads[token]
}

// GetDocxContent implements convert.DocumentSource.
func (p *Platform) GetDocxContent(_ context.Context, documentID string) (docx.Document, []docx.Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, ok := p.docs[documentID]
	if !ok {
		return docx.Document{}, nil, fmt.Errorf("%w: document %s", feishu.ErrNotFound, documentID)
	}
	return doc, append([]docx.Block(nil), p.blocks[documentID]...), nil
}

// GetWikiNode implements convert.DocumentSource.
func (p *Platform) GetWikiNode(_ context.Context, token string) (feishu.WikiNode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	node, ok := p.nodes[token]
	if !ok {
		return feishu.WikiNode{}, fmt.Errorf("%w: wiki node %s", feishu.ErrNotFound, token)
	}
	return node, nil
}

// DownloadMedia implements interfaces.MediaSource.
func (p *Platform) DownloadMedia(_ context.Context, token string) ([]byte, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.media[token]
	if !ok {
		return nil, "", fmt.Errorf("%w: media %s", feishu.ErrNotFound, token)
	}
	p.downloads[token]++
	return data, "application/octet-stream", nil
}
