package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-feishu2md/internal/convert"
	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/internal/media"
	"github.com/goliatone/go-feishu2md/internal/share"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const (
	defaultAPIBasePath   = "/api"
	defaultShareBasePath = "/s"

	imageCacheControl = "public, max-age=86400"
	rawCacheControl   = "public, max-age=3600"
)

// API registers the conversion, image proxy and share endpoints.
type API struct {
	basePath      string
	shareBasePath string
	converter     convert.Service
	images        media.Service
	shares        share.Service
	parser        interfaces.MarkdownParser
	parseOptions  interfaces.ParseOptions
	page          *template.Template
	sanitizer     *bluemonday.Policy
	logger        interfaces.Logger
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		basePath:      defaultAPIBasePath,
		shareBasePath: defaultShareBasePath,
		page:          sharePageTemplate,
		sanitizer:     newSharePolicy(),
		logger:        logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/api").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithShareBasePath overrides the share view path (defaults to "/s").
func WithShareBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.shareBasePath = trimmed
		}
	}
}

// WithConvertService wires the conversion service.
func WithConvertService(service convert.Service) Option {
	return func(api *API) {
		api.converter = service
	}
}

// WithMediaService wires the image service behind the proxy endpoint.
func WithMediaService(service media.Service) Option {
	return func(api *API) {
		api.images = service
	}
}

// WithShareService wires the share store.
func WithShareService(service share.Service) Option {
	return func(api *API) {
		api.shares = service
	}
}

// WithMarkdownParser sets the parser used to render shared documents as HTML.
func WithMarkdownParser(parser interfaces.MarkdownParser, opts interfaces.ParseOptions) Option {
	return func(api *API) {
		api.parser = parser
		api.parseOptions = opts
	}
}

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// Register mounts every route on mux.
func (api *API) Register(mux *http.ServeMux) {
	if api == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST "+joinPath(api.basePath, "convert"), api.handleConvert)
	mux.HandleFunc("GET "+joinPath(api.basePath, "download"), api.handleDownload)
	mux.HandleFunc("GET "+joinPath(api.basePath, "image")+"/{token}", api.handleImage)
	mux.HandleFunc("POST "+joinPath(api.basePath, "share"), api.handleShareCreate)

	shareRoot := joinPath(api.shareBasePath, "")
	mux.HandleFunc("GET "+shareRoot+"/{id}", api.handleShareView)
	mux.HandleFunc("GET "+shareRoot+"/{id}/raw", api.handleShareRaw)
}

// Handler returns a mux with every route registered.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()
	api.Register(mux)
	return mux
}

// ShareURL is the public path of a shared document.
func (api *API) ShareURL(code string) string {
	return joinPath(api.shareBasePath, code)
}
