package imagegen

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// placeholderField is sent when a call carries no files, so the body is still multipart.
const placeholderField = "none"

// encode builds the multipart body for req. Files opened from a path are closed before
// encode returns, on every path.
func (c *Client) encode(route *Route, req *Request, fields []field) ([]byte, string, error) {
	var opened []io.ReadCloser
	defer func() {
		for _, f := range opened {
			if err := f.Close(); err != nil {
				c.logger.Warn("close input file", zap.Error(err))
			}
		}
	}()

	roles := make([]string, 0, len(req.Files))
	for role, in := range req.Files {
		if in.empty() {
			continue
		}
		if !route.acceptsFile(role) {
			c.logger.Debug("dropping input file not accepted by route",
				zap.String("route", route.Path()),
				zap.String("role", role),
			)
			continue
		}
		roles = append(roles, role)
	}
	sort.Strings(roles)

	type part struct {
		field    string
		filename string
		r        io.Reader
	}
	parts := make([]part, 0, len(roles))
	for _, role := range roles {
		in := req.Files[role]
		p := part{field: route.FileField(role), filename: in.Filename, r: in.Reader}
		if in.Path != "" {
			f, err := c.open(in.Path)
			if err != nil {
				return nil, "", apperrors.Validation("open %s input: %v", role, err)
			}
			opened = append(opened, f)
			p.r = f
			if p.filename == "" {
				p.filename = filepath.Base(in.Path)
			}
		}
		if p.filename == "" {
			p.filename = role
		}
		parts = append(parts, p)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if len(parts) == 0 {
		if err := w.WriteField(placeholderField, ""); err != nil {
			return nil, "", fmt.Errorf("write placeholder: %w", err)
		}
	}
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.filename)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", p.field, err)
		}
		if _, err := io.Copy(fw, p.r); err != nil {
			return nil, "", fmt.Errorf("copy part %s: %w", p.field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
