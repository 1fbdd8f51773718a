package outbound

import (
	"context"

	"github.com/elidorascodex/tecflow/internal/model"
)

// TaskTrackerPort defines task tracker operations.
type TaskTrackerPort interface {
	// ListTasks lists tasks in the configured list.
	ListTasks(ctx context.Context, q model.TaskQuery) ([]*model.Task, error)

	// GetTask fetches a task by ID.
	GetTask(ctx context.Context, taskID string) (*model.Task, error)

	// UpdateStatus sets the status of a task.
	UpdateStatus(ctx context.Context, taskID, status string) error

	// AddAssignees adds members to a task.
	AddAssignees(ctx context.Context, taskID string, userIDs ...string) error

	// AddTags adds tags to a task.
	AddTags(ctx context.Context, taskID string, tags ...string) error

	// AddComment posts a comment on a task.
	AddComment(ctx context.Context, taskID, text string) error

	// SetCustomField sets a custom field value on a task.
	SetCustomField(ctx context.Context, taskID, fieldID string, value any) error

	// CreateTask creates a task, or a subtask when ParentID is set.
	CreateTask(ctx context.Context, t *model.NewTask) (*model.Task, error)

	// AddChecklist creates a named checklist on a task with the given items.
	AddChecklist(ctx context.Context, taskID, name string, items []model.ChecklistItem) error

	// CreateDoc creates a document in the workspace.
	CreateDoc(ctx context.Context, name, content string) (*model.Doc, error)

	// AttachDoc links a document to a task.
	AttachDoc(ctx context.Context, taskID, docID string) error

	// ListComments lists the comments of a task.
	ListComments(ctx context.Context, taskID string) ([]*model.TaskComment, error)

	// ListSubtasks lists the subtasks of a task.
	ListSubtasks(ctx context.Context, taskID string) ([]*model.Task, error)
}
