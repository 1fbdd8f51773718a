package imagegen

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/model"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// TaskName selects what Run does.
type TaskName string

const (
	TaskGenerate              TaskName = "generate"
	TaskEdit                  TaskName = "edit"
	TaskControl               TaskName = "control"
	TaskUpscale               TaskName = "upscale"
	TaskGenerateFactionImages TaskName = "generate_faction_images"
	TaskGenerateBlockNexus    TaskName = "generate_block_nexus"
)

// Task is a CLI or API level unit of work.
type Task struct {
	Name TaskName
	// Request is used by the single-call tasks. Its Family is set from Name.
	Request *Request
	// FactionName, ImageTypes and Variant are used by generate_faction_images.
	FactionName string
	ImageTypes  []FactionImageType
	Variant     string
}

// Run executes task and folds every error into the run record.
func (b *Batch) Run(ctx context.Context, task Task) *model.RunResult {
	result := model.NewRunResult()

	switch task.Name {
	case TaskGenerate, TaskEdit, TaskControl, TaskUpscale:
		if task.Request == nil {
			result.Fail(apperrors.Validation("task %s needs a request", task.Name))
			return result
		}
		req := *task.Request
		req.Family = Family(task.Name)
		res, err := b.submitter.Submit(ctx, &req)
		if err != nil {
			result.Record(err)
			break
		}
		result.SetOutput("output", res.Path)
		if res.ObjectKey != "" {
			result.SetOutput("object_key", res.ObjectKey)
		}

	case TaskGenerateFactionImages:
		if task.FactionName == "" {
			result.Fail(apperrors.Validation("task %s needs a faction name", task.Name))
			return result
		}
		b.fold(result, b.GenerateFactionImages(ctx, task.FactionName, task.ImageTypes, task.Variant))

	case TaskGenerateBlockNexus:
		b.fold(result, b.GenerateBlockNexus(ctx))

	default:
		b.logger.Error("Unknown task", zap.String("task", string(task.Name)))
		result.Fail(apperrors.Validation("unknown task: %s", task.Name))
	}
	return result
}

func (b *Batch) fold(result *model.RunResult, outcomes []BatchOutcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			result.Record(fmt.Errorf("%s: %w", o.Key, o.Err))
			continue
		}
		result.SetOutput(o.Key, o.Result.Path)
	}
}
