package imagegen

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	"github.com/elidorascodex/tecflow/internal/shared/clock"
)

// Archiver copies written artifacts to the object store and records them in the ledger.
// Either collaborator may be nil.
type Archiver struct {
	store  outbound.ObjectStorePort
	ledger outbound.ArtifactLedgerPort
	prefix string
	clock  clock.Clock
	logger *zap.Logger
}

// NewArchiver creates a new archiver.
func NewArchiver(
	store outbound.ObjectStorePort,
	ledger outbound.ArtifactLedgerPort,
	prefix string,
	clk clock.Clock,
	logger *zap.Logger,
) *Archiver {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		store:  store,
		ledger: ledger,
		prefix: prefix,
		clock:  clk,
		logger: logger.Named("archiver"),
	}
}

// Archive uploads res when the request asked for it, then records it. Upload failures are
// returned; ledger failures are logged.
func (a *Archiver) Archive(ctx context.Context, route *Route, req *Request, res *Result) error {
	if req.Upload {
		if a.store == nil {
			return fmt.Errorf("upload %s: no object store configured", res.Path)
		}
		key := objectKey(a.prefix, res.Path)
		if err := a.upload(ctx, key, res); err != nil {
			return fmt.Errorf("upload %s: %w", res.Path, err)
		}
		res.ObjectKey = key
		a.logger.Info("Uploaded artifact", zap.String("key", key))
	}

	if a.ledger == nil {
		return nil
	}
	artifact := &model.Artifact{
		ID:           uuid.New(),
		Family:       string(route.Family),
		Variant:      route.Variant,
		Path:         res.Path,
		ObjectKey:    res.ObjectKey,
		Format:       res.Format,
		Size:         res.Size,
		Seed:         res.seed,
		FinishReason: res.finishReason,
		Prompt:       req.Prompt,
		Labels:       labelsOf(req),
		CreatedAt:    a.clock.Now(),
	}
	if err := a.ledger.Record(ctx, artifact); err != nil {
		a.logger.Warn("Failed to record artifact",
			zap.String("path", res.Path),
			zap.Error(err),
		)
	}
	return nil
}

func (a *Archiver) upload(ctx context.Context, key string, res *Result) error {
	f, err := os.Open(res.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension("." + res.Format)
	if contentType == "" {
		contentType = "image/" + res.Format
	}
	return a.store.Upload(ctx, key, f, res.Size, contentType)
}

func objectKey(prefix, filePath string) string {
	return path.Join(strings.TrimSuffix(prefix, "/"), filepath.Base(filePath))
}

func labelsOf(req *Request) []string {
	labels := []string{}
	if req.OutputName != "" {
		labels = append(labels, "named:"+baseName(req.OutputName))
	}
	if s, ok := req.Params[ParamStylePreset].(string); ok && s != "" {
		labels = append(labels, "style:"+s)
	}
	return labels
}
