package imagegen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

const (
	finishReasonFiltered = "CONTENT_FILTERED"
	defaultFormat        = "jpeg"
	defaultSeed          = "0"
)

// decode reads a terminal response. A filtered result returns the decoded image together
// with a ContentFiltered error.
func (c *Client) decode(resp *response) (*image, error) {
	img := &image{
		data:         resp.body,
		finishReason: resp.header.Get("finish-reason"),
		seed:         resp.header.Get("seed"),
		format:       formatOf(resp.header.Get("Content-Type")),
	}

	if img.format == "json" {
		if err := decodeJSON(resp.body, img); err != nil {
			return nil, err
		}
	}

	if img.finishReason == "" {
		c.logger.Debug("Response has no finish-reason header")
	}
	if img.seed == "" {
		c.logger.Debug("Response has no seed header, using default", zap.String("seed", defaultSeed))
		img.seed = defaultSeed
	}
	if !seedPattern.MatchString(img.seed) {
		c.logger.Warn("Ignoring non-numeric seed", zap.String("seed", img.seed))
		img.seed = defaultSeed
	}
	if img.finishReason == finishReasonFiltered {
		return img, apperrors.ContentFiltered("")
	}
	return img, nil
}

// decodeJSON handles a terminal response encoded as JSON with a base64 image.
func decodeJSON(body []byte, img *image) error {
	var payload struct {
		Image        string      `json:"image"`
		Result       string      `json:"result"`
		FinishReason string      `json:"finish_reason"`
		Seed         json.Number `json:"seed"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apperrors.Malformed("decode result").Wrap(err)
	}
	encoded := payload.Image
	if encoded == "" {
		encoded = payload.Result
	}
	if payload.FinishReason != "" {
		img.finishReason = payload.FinishReason
	}
	if payload.Seed != "" {
		img.seed = payload.Seed.String()
	}
	if encoded == "" {
		if img.finishReason == finishReasonFiltered {
			img.data = nil
			img.format = defaultFormat
			return nil
		}
		return apperrors.Malformed("result has no image")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return apperrors.Malformed("decode base64 image").Wrap(err)
	}
	img.data = data
	img.format = defaultFormat
	return nil
}

// seedPattern matches the seeds the API returns. Seeds end up in file names.
var seedPattern = regexp.MustCompile(`^[0-9]+$`)

// formatPattern limits extensions to a single safe path segment.
var formatPattern = regexp.MustCompile(`^[a-z0-9.+-]+$`)

// formatOf maps a Content-Type to a file extension. Anything that is not a plain subtype
// falls back to jpeg.
func formatOf(contentType string) string {
	if contentType == "" {
		return defaultFormat
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	_, sub, ok := strings.Cut(strings.ToLower(mediaType), "/")
	if !ok {
		return defaultFormat
	}
	sub, _, _ = strings.Cut(sub, "/")
	if !formatPattern.MatchString(sub) || strings.Trim(sub, ".") == "" {
		return defaultFormat
	}
	return sub
}

func (img *image) seedOrEmpty() string {
	if img == nil {
		return ""
	}
	return img.seed
}

// persist writes img to {output_dir}/{name}.{ext}.
func (c *Client) persist(img *image, req *Request) (*Result, error) {
	name := baseName(req.OutputName)
	if name == "" {
		name = fmt.Sprintf("stability_%s_%s", c.clock.Now().Format("20060102_150405"), img.seed)
	}

	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(c.cfg.OutputDir, name+"."+img.format)
	if err := os.WriteFile(path, img.data, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	res := &Result{
		Path:         path,
		Format:       img.format,
		Size:         int64(len(img.data)),
		seed:         img.seed,
		finishReason: img.finishReason,
	}
	if req.ReturnImage {
		res.Image = img.data
	}
	if req.ReturnMetadata {
		res.Metadata = &Metadata{Seed: img.seed, FinishReason: img.finishReason}
	}
	return res, nil
}
