// Package feishu2md converts Feishu/Lark docx documents into Markdown.
//
// Render works on an already fetched block list. Module wires the open
// platform client, image handling, the share store and the HTTP adapter from
// a Config.
package feishu2md

import (
	"context"
	"net/http"

	"github.com/goliatone/go-feishu2md/docx"
	documentscmd "github.com/goliatone/go-feishu2md/internal/commands/documents"
	"github.com/goliatone/go-feishu2md/internal/convert"
	"github.com/goliatone/go-feishu2md/internal/di"
	"github.com/goliatone/go-feishu2md/internal/media"
	"github.com/goliatone/go-feishu2md/internal/render"
	"github.com/goliatone/go-feishu2md/internal/share"
)

// RenderResult exports the renderer output.
type RenderResult = render.Result

// ConvertService exports the conversion service contract.
type ConvertService = convert.Service

// ConvertResult exports a converted document.
type ConvertResult = convert.Result

// Bundle exports a downloadable export.
type Bundle = convert.Bundle

// MediaService exports the image service contract.
type MediaService = media.Service

// ShareService exports the share store contract.
type ShareService = share.Service

// SharedDocument exports a stored share.
type SharedDocument = share.Document

// DocumentCommands exports the document command handlers.
type DocumentCommands = documentscmd.HandlerSet

// Render renders the block tree rooted at rootID. Image tokens are left in
// place and reported in document order.
func Render(rootID string, blocks []docx.Block) RenderResult {
	return render.Render(rootID, blocks)
}

// RenderDocument renders the tree rooted at the document's own block.
func RenderDocument(doc docx.Document, blocks []docx.Block) RenderResult {
	return render.RenderDocument(doc, blocks)
}

// Module represents the top level converter runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Convert converts the document at rawURL with images rewritten per the media mode.
func (m *Module) Convert(ctx context.Context, rawURL string) (*ConvertResult, error) {
	return m.container.ConvertService().Convert(ctx, rawURL)
}

// Converter returns the configured conversion service.
func (m *Module) Converter() ConvertService {
	return m.container.ConvertService()
}

// Media returns the image service.
func (m *Module) Media() MediaService {
	return m.container.MediaService()
}

// Shares returns the share store, or nil when sharing is disabled.
func (m *Module) Shares() ShareService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.ShareService()
}

// Commands returns the document command handlers.
func (m *Module) Commands() *DocumentCommands {
	return m.container.Commands()
}

// Handler returns the HTTP handler serving the API and share views.
func (m *Module) Handler() http.Handler {
	return m.container.API().Handler()
}

// Close releases resources the module opened.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
