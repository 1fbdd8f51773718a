package model

import (
	"slices"
	"time"
)

// TrackerUser is a member of the task tracker workspace.
type TrackerUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Task is a work item in the task tracker.
type Task struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Tags        []string      `json:"tags"`
	Creator     *TrackerUser  `json:"creator,omitempty"`
	Assignees   []TrackerUser `json:"assignees,omitempty"`
	ParentID    string        `json:"parent,omitempty"`
	ListID      string        `json:"list_id,omitempty"`
	URL         string        `json:"url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// HasTag reports whether the task carries tag. Tag names are compared exactly.
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// TaskComment is a comment on a task.
type TaskComment struct {
	ID        string       `json:"id"`
	Text      string       `json:"comment_text"`
	User      *TrackerUser `json:"user,omitempty"`
	CreatedAt time.Time    `json:"date"`
}

// TaskQuery filters a task listing. Empty fields do not filter.
type TaskQuery struct {
	Statuses []string
	Tags     []string
}

// NewTask holds the fields for creating a task or subtask.
type NewTask struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ParentID    string   `json:"parent,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
	Status      string   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}

// ChecklistItem is one entry of a task checklist.
type ChecklistItem struct {
	Name     string `json:"name" yaml:"name"`
	Resolved bool   `json:"resolved" yaml:"resolved"`
}

// TaskTemplate describes a task to import, with optional subtasks and checklist.
type TaskTemplate struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Status      string          `json:"status" yaml:"status"`
	Priority    int             `json:"priority" yaml:"priority"`
	Tags        []string        `json:"tags" yaml:"tags"`
	Assignees   []string        `json:"assignees" yaml:"assignees"`
	Checklist   []ChecklistItem `json:"checklist" yaml:"checklist"`
	Subtasks    []TaskTemplate  `json:"subtasks" yaml:"subtasks"`
}

// Doc is a tracker document.
type Doc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ScoredTask is a task with its relevance score.
type ScoredTask struct {
	Task  Task `json:"task"`
	Score int  `json:"score"`
}
