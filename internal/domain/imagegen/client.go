package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/infra/httpclient"
	"github.com/elidorascodex/tecflow/internal/shared/clock"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

const service = "stability"

// Submitter runs a single request.
type Submitter interface {
	Submit(ctx context.Context, req *Request) (*Result, error)
}

// Client translates requests into calls against the image generation API and persists
// the results.
type Client struct {
	cfg      *Config
	doer     httpclient.Doer
	clock    clock.Clock
	archiver *Archiver
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// open reads path inputs. Every file it returns is closed before the call ends.
	open func(path string) (io.ReadCloser, error)
}

var _ Submitter = (*Client)(nil)

// NewClient creates a new image generation client. archiver and m may be nil.
func NewClient(
	cfg *Config,
	doer httpclient.Doer,
	clk clock.Clock,
	archiver *Archiver,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:      cfg,
		doer:     doer,
		clock:    clk,
		archiver: archiver,
		metrics:  m,
		logger:   logger.Named("imagegen"),
		open:     openFile,
	}
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Submit validates req, dispatches it synchronously or asynchronously according to its
// route, decodes the terminal response and writes the artifact.
func (c *Client) Submit(ctx context.Context, req *Request) (*Result, error) {
	start := c.clock.Now()
	res, err := c.submit(ctx, req)

	outcome := "success"
	switch {
	case apperrors.IsFiltered(err):
		outcome = "filtered"
	case err != nil:
		outcome = "error"
	}
	c.metrics.RecordGeneration(string(req.Family), req.Variant, outcome, c.clock.Now().Sub(start))
	return res, err
}

func (c *Client) submit(ctx context.Context, req *Request) (*Result, error) {
	route, err := Lookup(req.Family, req.Variant)
	if err != nil {
		return nil, err
	}
	if err := route.validate(req); err != nil {
		return nil, err
	}
	if c.cfg.APIKey == "" {
		return nil, apperrors.Configuration("stability", "stability.api_key")
	}
	if c.cfg.OutputDir == "" {
		return nil, apperrors.Configuration("stability", "stability.output_dir")
	}

	fields, err := route.buildParams(req, c.logger)
	if err != nil {
		return nil, err
	}
	body, contentType, err := c.encode(route, req, fields)
	if err != nil {
		return nil, err
	}

	log := c.logger.With(
		zap.String("route", route.Path()),
		zap.Stringer("mode", route.Mode),
	)
	log.Info("Submitting generation request")

	var resp *response
	switch route.Mode {
	case ModeAsync:
		job, err := c.start(ctx, route, body, contentType)
		if err != nil {
			return nil, err
		}
		log.Info("Generation job accepted", zap.String("job_id", job.ID))
		resp, err = c.poll(ctx, job)
		if err != nil {
			return nil, err
		}
	default:
		resp, err = c.post(ctx, route, body, contentType, "image/*")
		if err != nil {
			return nil, err
		}
	}

	img, err := c.decode(resp)
	if err != nil {
		if apperrors.IsFiltered(err) {
			log.Warn("Generation result was filtered", zap.String("seed", img.seedOrEmpty()))
		}
		return nil, err
	}

	res, err := c.persist(img, req)
	if err != nil {
		return nil, err
	}
	log.Info("Saved image", zap.String("path", res.Path), zap.Int64("size", res.Size))

	if c.archiver != nil {
		if err := c.archiver.Archive(ctx, route, req, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// start submits an async job and returns its handle.
func (c *Client) start(ctx context.Context, route *Route, body []byte, contentType string) (*AsyncJob, error) {
	resp, err := c.post(ctx, route, body, contentType, "application/json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, apperrors.Malformed("%s: decode job", route.Path()).Wrap(err)
	}
	if payload.ID == "" {
		return nil, apperrors.Malformed("%s: expected generation id in response", route.Path())
	}
	return &AsyncJob{ID: payload.ID, CreatedAt: c.clock.Now()}, nil
}

func (c *Client) post(ctx context.Context, route *Route, body []byte, contentType, accept string) (*response, error) {
	url := c.endpoint(route.Path())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", accept)
	return c.do(req, route.Path())
}

func (c *Client) get(ctx context.Context, path string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	return c.do(req, "results")
}

// do sends req and reads the whole body. Non-2xx responses become transport errors.
func (c *Client) do(req *http.Request, op string) (*response, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(service, op, 0, time.Since(start))
		return nil, apperrors.Transport(req.URL.Path, 0, "").Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.RecordUpstream(service, op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, apperrors.Transport(req.URL.Path, resp.StatusCode, "").Wrap(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("API request failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, apperrors.Transport(req.URL.Path, resp.StatusCode, string(body))
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + path
}
