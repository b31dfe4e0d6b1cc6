// Package feishu is a small client for the Feishu/Lark open platform endpoints
// the converter needs: tenant tokens, docx documents and blocks, wiki nodes and
// media downloads.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-feishu2md/docx"
	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const (
	DefaultBaseURL  = "https://open.feishu.cn"
	DefaultPageSize = 500
	DefaultTimeout  = 30 * time.Second

	// tokens are refreshed this long before the platform expires them
	tokenRefreshMargin = 60 * time.Second
)

const (
	tenantTokenPath = "/open-apis/auth/v3/tenant_access_token/internal"
	documentPath    = "/open-apis/docx/v1/documents/"
	wikiNodePath    = "/open-apis/wiki/v2/spaces/get_node"
	mediaPath       = "/open-apis/drive/v1/medias/"
)

// Config holds the app credentials and transport settings.
type Config struct {
	AppID     string
	AppSecret string
	BaseURL   string
	PageSize  int
	Timeout   time.Duration
}

// Client calls the open platform with a cached tenant access token. It is safe
// for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger interfaces.Logger
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient validates the credentials and applies defaults for empty settings.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.AppID) == "" || strings.TrimSpace(cfg.AppSecret) == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetDocument fetches document metadata.
func (c *Client) GetDocument(ctx context.Context, documentID string) (docx.Document, error) {
	var resp documentResponse
	if err := c.getJSON(ctx, "get document", documentPath+url.PathEscape(documentID), nil, &resp); err != nil {
		return docx.Document{}, err
	}
	if resp.Data.Document == nil {
		return docx.Document{}, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}
	return *resp.Data.Document, nil
}

// ListBlocks follows page tokens until every block of the document is loaded.
func (c *Client) ListBlocks(ctx context.Context, documentID string) ([]docx.Block, error) {
	var blocks []docx.Block
	pageToken := ""
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(c.cfg.PageSize))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var resp blocksResponse
		path := documentPath + url.PathEscape(documentID) + "/blocks"
		if err := c.getJSON(ctx, "list blocks", path, query, &resp); err != nil {
			return nil, err
		}
		blocks = append(blocks, resp.Data.Items...)

		c.logger.Debug("feishu.blocks.page",
			"document_id", documentID,
			"page", page,
			"items", len(resp.Data.Items),
			"has_more", resp.Data.HasMore,
		)

		if !resp.Data.HasMore || resp.Data.PageToken == "" {
			return blocks, nil
		}
		pageToken = resp.Data.PageToken
	}
}

// GetDocxContent returns the document metadata and its complete block list.
func (c *Client) GetDocxContent(ctx context.Context, documentID string) (docx.Document, []docx.Block, error) {
	doc, err := c.GetDocument(ctx, documentID)
	if err != nil {
		return docx.Document{}, nil, err
	}
	blocks, err := c.ListBlocks(ctx, documentID)
	if err != nil {
		return docx.Document{}, nil, err
	}
	return doc, blocks, nil
}

// GetWikiNode resolves a wiki token to the object it wraps.
func (c *Client) GetWikiNode(ctx context.Context, token string) (WikiNode, error) {
	query := url.Values{}
	query.Set("token", token)

	var resp wikiNodeResponse
	if err := c.getJSON(ctx, "get wiki node", wikiNodePath, query, &resp); err != nil {
		return WikiNode{}, err
	}
	if resp.Data.Node == nil {
		return WikiNode{}, fmt.Errorf("%w: wiki node %s", ErrNotFound, token)
	}
	return *resp.Data.Node, nil
}

// DownloadMedia returns the raw bytes of an uploaded file or image along with
// the content type the platform reported.
func (c *Client) DownloadMedia(ctx context.Context, token string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, mediaPath+url.PathEscape(token)+"/download", nil, nil)
	if err != nil {
		return nil, "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("feishu: download media %s: %w", token, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", fmt.Errorf("feishu: read media %s: %w", token, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, "", responseError("download media", res.StatusCode, body)
	}
	return body, res.Header.Get("Content-Type"), nil
}

func (c *Client) tenantToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.expiresAt.Add(-tokenRefreshMargin)) {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"app_id":     c.cfg.AppID,
		"app_secret": c.cfg.AppSecret,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+tenantTokenPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("feishu: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	var resp tenantTokenResponse
	if err := c.do(req, "get tenant token", &resp); err != nil {
		return "", err
	}

	c.token = resp.TenantAccessToken
	c.expiresAt = now.Add(time.Duration(resp.Expire) * time.Second)
	c.logger.Debug("feishu.token.refreshed", "expires_at", c.expiresAt)
	return c.token, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	token, err := c.tenantToken(ctx)
	if err != nil {
		return nil, err
	}
	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("feishu: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out result) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out result) error {
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("feishu: %s: %w", op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("feishu: %s: read body: %w", op, err)
	}
	if res.StatusCode != http.StatusOK {
		return responseError(op, res.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("feishu: %s: decode response: %w", op, err)
	}
	if env := out.status(); env.Code != 0 {
		return &APIError{Op: op, Status: res.StatusCode, Code: env.Code, Msg: env.Msg}
	}
	return nil
}

// result is implemented by every response type through the embedded envelope.
type result interface {
	status() envelope
}

func (e envelope) status() envelope { return e }

func responseError(op string, status int, body []byte) error {
	var env envelope
	_ = json.Unmarshal(body, &env)
	return &APIError{Op: op, Status: status, Code: env.Code, Msg: env.Msg}
}
