// Package wordpress implements the publisher port against the WordPress REST API using
// application passwords.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/infra/httpclient"
	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

const (
	service = "wordpress"
	// wpTime is the layout of the *_gmt timestamps.
	wpTime = "2006-01-02T15:04:05"
)

// Client publishes posts to a WordPress site.
type Client struct {
	cfg     config.WordPressConfig
	doer    httpclient.Doer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ outbound.PublisherPort = (*Client)(nil)

// NewClient creates a new WordPress client. m may be nil.
func NewClient(cfg config.WordPressConfig, doer httpclient.Doer, m *metrics.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		doer:    doer,
		metrics: m,
		logger:  logger.Named("wordpress"),
	}
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type wirePost struct {
	ID          int64    `json:"id"`
	Link        string   `json:"link"`
	Status      string   `json:"status"`
	Title       rendered `json:"title"`
	Content     rendered `json:"content"`
	Excerpt     rendered `json:"excerpt"`
	DateGMT     string   `json:"date_gmt"`
	ModifiedGMT string   `json:"modified_gmt"`
}

func (w *wirePost) toModel() *model.Post {
	return &model.Post{
		ID:       w.ID,
		Title:    w.Title.Rendered,
		Content:  w.Content.Rendered,
		Excerpt:  w.Excerpt.Rendered,
		Status:   model.PostStatus(w.Status),
		Link:     w.Link,
		Date:     parseTime(w.DateGMT),
		Modified: parseTime(w.ModifiedGMT),
	}
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(wpTime, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreatePost creates a post. An empty status uses the configured default, then draft.
// Configured categories apply when the post names none.
func (c *Client) CreatePost(ctx context.Context, p *model.NewPost) (*model.Post, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	body := *p
	if body.Status == "" {
		body.Status = model.PostStatus(c.cfg.PostStatus)
	}
	if body.Status == "" {
		body.Status = model.PostStatusDraft
	}
	if len(body.Categories) == 0 {
		body.Categories = c.cfg.Categories
	}

	var out wirePost
	if err := c.doJSON(ctx, http.MethodPost, "create_post", "posts", nil, body, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 && out.Link == "" {
		return nil, apperrors.Malformed("create post %q: response has no id or link", p.Title)
	}

	c.logger.Info("Created post",
		zap.Int64("id", out.ID),
		zap.String("link", out.Link),
		zap.String("status", out.Status),
	)
	return out.toModel(), nil
}

// ListPosts lists posts of any status, newest first.
func (c *Client) ListPosts(ctx context.Context, page, perPage int) ([]*model.Post, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 100
	}
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
		"status":   {"any"},
		"context":  {"edit"},
	}

	var out []wirePost
	if err := c.doJSON(ctx, http.MethodGet, "list_posts", "posts", query, nil, &out); err != nil {
		return nil, err
	}
	posts := make([]*model.Post, 0, len(out))
	for i := range out {
		posts = append(posts, out[i].toModel())
	}
	return posts, nil
}

func (c *Client) doJSON(ctx context.Context, method, op, path string, query url.Values, in, out any) error {
	endpoint := c.cfg.APIBase() + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.AppPassword)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(service, op, 0, time.Since(start))
		return apperrors.Transport(path, 0, "").Wrap(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.RecordUpstream(service, op, resp.StatusCode, time.Since(start))
	if err != nil {
		return apperrors.Transport(path, resp.StatusCode, "").Wrap(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("API request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return apperrors.Transport(path, resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.Malformed("decode %s response", op).Wrap(err)
	}
	return nil
}
