package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/elidorascodex/tecflow/internal/model"
)

const (
	checklistName   = "Action Items"
	defaultTaskName = "New Task"
	defaultPriority = 3
)

// LoadTemplates reads a templates file of the form {tasks: [...]}. JSON files parse as YAML.
func LoadTemplates(path string) ([]model.TaskTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var doc struct {
		Tasks []model.TaskTemplate `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", path, err)
	}
	return doc.Tasks, nil
}

// CreateFromTemplate creates a task with its checklist and subtasks. The returned task is
// nil only when the task itself could not be created; checklist and subtask failures are
// joined into the returned error alongside a non-nil task.
func (s *Service) CreateFromTemplate(ctx context.Context, tmpl *model.TaskTemplate) (*model.Task, error) {
	return s.createFromTemplate(ctx, tmpl, "")
}

func (s *Service) createFromTemplate(ctx context.Context, tmpl *model.TaskTemplate, parentID string) (*model.Task, error) {
	nt := &model.NewTask{
		Name:        orDefault(tmpl.Name, defaultTaskName),
		Description: tmpl.Description,
		ParentID:    parentID,
		Status:      orDefault(tmpl.Status, s.cfg.Statuses.Open),
		Tags:        tmpl.Tags,
		Priority:    tmpl.Priority,
	}
	if nt.Priority == 0 {
		nt.Priority = defaultPriority
	}
	for _, a := range tmpl.Assignees {
		nt.Assignees = append(nt.Assignees, s.cfg.memberID(a))
	}

	task, err := s.tracker.CreateTask(ctx, nt)
	if err != nil {
		return nil, fmt.Errorf("create task %q: %w", nt.Name, err)
	}

	var errs []error
	if len(tmpl.Checklist) > 0 {
		if err := s.tracker.AddChecklist(ctx, task.ID, checklistName, tmpl.Checklist); err != nil {
			s.logger.Warn("Failed to add checklist", zap.String("task_id", task.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("checklist on %q: %w", nt.Name, err))
		}
	}
	for i := range tmpl.Subtasks {
		if _, err := s.createFromTemplate(ctx, &tmpl.Subtasks[i], task.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return task, errors.Join(errs...)
}

// BulkImport creates every task of a templates file. One failure never stops the rest.
func (s *Service) BulkImport(ctx context.Context, path string) *model.RunResult {
	result := model.NewRunResult()
	result.Counts = map[string]int{"tasks_created": 0, "failed_tasks": 0}

	templates, err := LoadTemplates(path)
	if err != nil {
		result.Fail(err)
		return result
	}
	s.logger.Info("Importing tasks", zap.String("path", path), zap.Int("count", len(templates)))

	for i := range templates {
		task, err := s.CreateFromTemplate(ctx, &templates[i])
		if task == nil {
			result.Inc("failed_tasks")
			result.Fail(err)
			continue
		}
		result.Inc("tasks_created")
		result.Action("Created task " + task.ID)
		result.Record(err)
	}

	s.metrics.RecordTaskProcessed("import")
	s.logger.Info("Imported tasks",
		zap.Int("created", result.Counts["tasks_created"]),
		zap.Int("failed", result.Counts["failed_tasks"]),
	)
	return result
}
