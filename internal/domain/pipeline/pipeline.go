// Package pipeline moves finished tasks from the tracker to the blog and backs the blog up
// to object storage.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/domain/content"
	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	"github.com/elidorascodex/tecflow/internal/shared/clock"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

const (
	backupPrefix   = "backups/"
	backupPageSize = 100
	maxBackupPages = 50
)

var numberedTitle = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)

// Config names the statuses the pipeline reads and writes.
type Config struct {
	ReadyStatus     string
	PublishedStatus string
	PostStatus      string
}

// ConfigFrom builds a pipeline config from the pipeline and wordpress sections.
func ConfigFrom(p config.PipelineConfig, wp config.WordPressConfig) Config {
	return Config{
		ReadyStatus:     p.ReadyStatus,
		PublishedStatus: p.PublishedStatus,
		PostStatus:      wp.PostStatus,
	}
}

func (c *Config) applyDefaults() {
	if c.ReadyStatus == "" {
		c.ReadyStatus = "Ready for Publishing"
	}
	if c.PublishedStatus == "" {
		c.PublishedStatus = "Published"
	}
}

// Service runs the publishing pipeline. The object store is only needed for backups.
type Service struct {
	tracker   outbound.TaskTrackerPort
	gen       outbound.TextGeneratorPort
	publisher outbound.PublisherPort
	store     outbound.ObjectStorePort
	prompts   content.Prompts
	cfg       Config
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService creates a new pipeline service.
func NewService(
	tracker outbound.TaskTrackerPort,
	gen outbound.TextGeneratorPort,
	publisher outbound.PublisherPort,
	store outbound.ObjectStorePort,
	prompts content.Prompts,
	cfg Config,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	cfg.applyDefaults()
	if prompts == nil {
		prompts = content.DefaultPrompts()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tracker:   tracker,
		gen:       gen,
		publisher: publisher,
		store:     store,
		prompts:   prompts,
		cfg:       cfg,
		clock:     clk,
		metrics:   m,
		logger:    logger.Named("pipeline"),
	}
}

// Publish enhances every ready task, posts it and marks it published. A failed task is
// recorded and the rest continue.
func (s *Service) Publish(ctx context.Context) *model.RunResult {
	result := model.NewRunResult()
	for _, c := range []string{"tasks_processed", "content_enhanced", "posts_created"} {
		result.Counts = initCount(result.Counts, c)
	}

	tasks, err := s.tracker.ListTasks(ctx, model.TaskQuery{Statuses: []string{s.cfg.ReadyStatus}})
	if err != nil {
		result.Fail(fmt.Errorf("list tasks: %w", err))
		return result
	}
	if len(tasks) == 0 {
		s.logger.Info("No tasks ready for publishing", zap.String("status", s.cfg.ReadyStatus))
		return result
	}
	s.logger.Info("Found tasks ready for publishing", zap.Int("count", len(tasks)))

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			result.Fail(err)
			break
		}
		s.publishTask(ctx, task, result)
	}

	s.logger.Info("Pipeline completed",
		zap.String("status", string(result.Status)),
		zap.Int("posts_created", result.Counts["posts_created"]),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

func (s *Service) publishTask(ctx context.Context, task *model.Task, result *model.RunResult) {
	log := s.logger.With(zap.String("task_id", task.ID), zap.String("task_name", task.Name))

	prompt, err := s.prompts.Render(content.PromptEnhancement, map[string]string{
		"content": task.Name + "\n\n" + task.Description,
	})
	if err != nil {
		result.Fail(fmt.Errorf("task %s processing failed: %w", task.ID, err))
		return
	}
	enhanced, err := s.gen.Complete(ctx, prompt, outbound.CompletionOptions{})
	if err != nil {
		log.Error("Enhancement failed", zap.Error(err))
		result.Record(fmt.Errorf("task %s processing failed: %w", task.ID, err))
		return
	}
	result.Inc("content_enhanced")
	s.metrics.RecordContentEnhanced()

	title := s.postTitle(ctx, task.Name)

	post, err := s.publisher.CreatePost(ctx, &model.NewPost{
		Title:   title,
		Content: enhanced,
		Excerpt: task.Name,
		Status:  model.PostStatus(s.cfg.PostStatus),
	})
	if err != nil {
		log.Error("Publishing failed", zap.Error(err))
		result.Record(fmt.Errorf("task %s publishing failed: %w", task.ID, err))
	} else {
		result.Inc("posts_created")
		s.metrics.RecordPostCreated()
		result.Action(fmt.Sprintf("Published %s as %s", task.ID, post.Link))

		if err := s.tracker.AddComment(ctx, task.ID, "Content published to WordPress: "+post.Link); err != nil {
			result.Record(fmt.Errorf("task %s comment failed: %w", task.ID, err))
		}
		if err := s.tracker.UpdateStatus(ctx, task.ID, s.cfg.PublishedStatus); err != nil {
			result.Record(fmt.Errorf("task %s status update failed: %w", task.ID, err))
		}
	}

	result.Inc("tasks_processed")
	s.metrics.RecordTaskProcessed("publish")
}

// postTitle picks the first numbered suggestion, falling back to the task name.
func (s *Service) postTitle(ctx context.Context, name string) string {
	prompt, err := s.prompts.Render(content.PromptTitle, map[string]string{"topic": name})
	if err != nil {
		return name
	}
	suggestions, err := s.gen.Complete(ctx, prompt, outbound.CompletionOptions{})
	if err != nil {
		s.logger.Warn("Title generation failed", zap.String("task_name", name), zap.Error(err))
		return name
	}
	if m := numberedTitle.FindStringSubmatch(suggestions); m != nil {
		return strings.TrimSpace(m[1])
	}
	return name
}

// Backup writes every post as indented JSON to backups/{name} in the object store. An
// empty name uses wp_backup_{timestamp}.json.
func (s *Service) Backup(ctx context.Context, name string) *model.RunResult {
	result := model.NewRunResult()
	if s.store == nil {
		result.Fail(apperrors.Configuration("object storage", "storage.bucket"))
		return result
	}

	if name == "" {
		name = fmt.Sprintf("wp_backup_%s.json", s.clock.Now().Format("20060102_150405"))
	} else if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}

	var posts []*model.Post
	for page := 1; page <= maxBackupPages; page++ {
		batch, err := s.publisher.ListPosts(ctx, page, backupPageSize)
		if err != nil {
			result.Fail(fmt.Errorf("list posts page %d: %w", page, err))
			return result
		}
		posts = append(posts, batch...)
		if len(batch) < backupPageSize {
			break
		}
	}

	data, err := json.MarshalIndent(map[string]any{
		"created_at": s.clock.Now().UTC(),
		"posts":      posts,
	}, "", "  ")
	if err != nil {
		result.Fail(fmt.Errorf("encode backup: %w", err))
		return result
	}

	key := backupPrefix + name
	if err := s.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		result.Fail(fmt.Errorf("upload backup: %w", err))
		return result
	}

	result.Counts = initCount(result.Counts, "posts")
	result.Counts["posts"] = len(posts)
	result.SetOutput("object_key", key)
	result.Action(fmt.Sprintf("Backed up %d posts to %s", len(posts), key))
	s.logger.Info("Backed up posts", zap.String("key", key), zap.Int("posts", len(posts)))
	return result
}

func initCount(counts map[string]int, name string) map[string]int {
	if counts == nil {
		counts = make(map[string]int)
	}
	if _, ok := counts[name]; !ok {
		counts[name] = 0
	}
	return counts
}
