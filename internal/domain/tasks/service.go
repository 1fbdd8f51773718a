// Package tasks implements the task tracker workflows: assessment triage, lore documents,
// template imports and related-task discovery.
package tasks

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	"github.com/elidorascodex/tecflow/internal/shared/clock"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

// Workflow comments.
const (
	sentimentComment    = "🤖 ClickUpAgent: AI would analyze the Task Sentiment here. (Simulated field update)"
	briefComment        = "🤖 ClickUpAgent: AI would generate a Task Brief here. (Simulated field update)"
	interventionComment = "🛡️ Airth requires intervention. Review related tasks based on tags and content brief. Define necessary subtasks manually."

	processingTag = "AI-Processing"
)

// Service runs the task workflows against a tracker.
type Service struct {
	tracker outbound.TaskTrackerPort
	cfg     *Config
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new task workflow service.
func NewService(
	tracker outbound.TaskTrackerPort,
	cfg *Config,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.applyDefaults()
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tracker: tracker,
		cfg:     cfg,
		clock:   clk,
		metrics: m,
		logger:  logger.Named("tasks"),
	}
}

// FindRelated scores every task of the list against keywords and tags. With neither given,
// the tags of the task itself are used.
func (s *Service) FindRelated(ctx context.Context, taskID string, keywords, tags []string) ([]model.ScoredTask, error) {
	if len(keywords) == 0 && len(tags) == 0 {
		task, err := s.tracker.GetTask(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("get task %s: %w", taskID, err)
		}
		tags = task.Tags
	}

	all, err := s.tracker.ListTasks(ctx, model.TaskQuery{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	related := Related(all, taskID, keywords, tags)
	s.logger.Info("Found related tasks",
		zap.String("task_id", taskID),
		zap.Int("count", len(related)),
	)
	return related, nil
}

// ProcessAssessmentTrigger runs the first automation step on a task: move it to AI analysis,
// assign its creator, leave the sentiment and brief notes, tag it and ask for intervention.
// Each step is attempted even when an earlier one failed.
func (s *Service) ProcessAssessmentTrigger(ctx context.Context, taskID string) *model.RunResult {
	result := model.NewRunResult()
	result.SetOutput("task_id", taskID)

	task, err := s.tracker.GetTask(ctx, taskID)
	if err != nil {
		s.logger.Error("Failed to get task", zap.String("task_id", taskID), zap.Error(err))
		result.Fail(fmt.Errorf("get task: %w", err))
		return result
	}

	step := func(action string, err error) {
		if err != nil {
			result.Fail(fmt.Errorf("%s: %w", strings.ToLower(action), err))
			return
		}
		result.Action(action)
	}

	step("Updated status to "+s.cfg.Statuses.AIAnalysis, s.tracker.UpdateStatus(ctx, taskID, s.cfg.Statuses.AIAnalysis))
	if task.Creator != nil && task.Creator.ID != "" {
		step("Assigned task to creator", s.tracker.AddAssignees(ctx, taskID, task.Creator.ID))
	}
	step("Added comment about Task Sentiment analysis", s.tracker.AddComment(ctx, taskID, sentimentComment))
	step("Added comment about AI Task Brief generation", s.tracker.AddComment(ctx, taskID, briefComment))
	step("Added "+processingTag+" tag", s.tracker.AddTags(ctx, taskID, processingTag))
	step("Added Airth intervention comment", s.tracker.AddComment(ctx, taskID, interventionComment))

	if fieldID := s.cfg.CustomFields[FieldAirthActions]; fieldID != "" {
		summary := strings.Join(result.Actions, "; ")
		step("Recorded actions in custom field", s.tracker.SetCustomField(ctx, taskID, fieldID, summary))
	}

	s.metrics.RecordTaskProcessed("assessment")
	s.logger.Info("Processed assessment trigger",
		zap.String("task_id", taskID),
		zap.String("status", string(result.Status)),
		zap.Int("actions", len(result.Actions)),
	)
	return result
}

// Run gathers the tasks carrying any trigger tag and triages the new ones.
func (s *Service) Run(ctx context.Context) *model.RunResult {
	result := model.NewRunResult()
	s.logger.Info("Starting task workflow", zap.Strings("trigger_tags", s.cfg.TriggerTags))

	var found []*model.Task
	for _, tag := range s.cfg.TriggerTags {
		tasks, err := s.tracker.ListTasks(ctx, model.TaskQuery{Tags: []string{tag}})
		if err != nil {
			result.Fail(fmt.Errorf("list tasks tagged %q: %w", tag, err))
			continue
		}
		found = append(found, tasks...)
	}
	result.Counts = map[string]int{"tasks_found": len(found), "tasks_processed": 0}

	seen := make(map[string]bool, len(found))
	for _, task := range found {
		if seen[task.ID] {
			continue
		}
		seen[task.ID] = true
		if !s.isNew(task.Status) {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Fail(err)
			break
		}
		result.Absorb(task.ID, s.ProcessAssessmentTrigger(ctx, task.ID))
		result.Inc("tasks_processed")
	}

	s.logger.Info("Task workflow completed",
		zap.Int("tasks_found", result.Counts["tasks_found"]),
		zap.Int("tasks_processed", result.Counts["tasks_processed"]),
	)
	return result
}

// isNew reports whether a task status still needs triage.
func (s *Service) isNew(status string) bool {
	for _, st := range []string{s.cfg.Statuses.Open, "Unprocessed", ""} {
		if strings.EqualFold(status, st) {
			return true
		}
	}
	return false
}
