package tasks

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/model"
)

// loreHighlights is the number of trailing comments quoted in a lore doc.
const loreHighlights = 5

var loreTemplate = template.Must(template.New("lore").Parse(`<h1>TEC Lore Drop</h1>
<h2>{{.Name}}</h2>
<p><em>Generated on {{.Generated}}</em></p>
<h3>Task Description</h3>
<div>{{.Description}}</div>
<h3>Key Actions</h3>
<ul>
{{- range .Subtasks}}
<li>{{.Name}} ({{.Status}})</li>
{{- end}}
</ul>
<h3>Related Content</h3>
<ul>
{{- range .Related}}
<li>{{.Name}} (ID: {{.ID}})</li>
{{- end}}
</ul>
<h3>Discussion Highlights</h3>
<div>
{{- range .Comments}}
<p><strong>{{.User}}:</strong> {{.Text}}</p>
{{- end}}
</div>
<h3>Next Steps</h3>
<p>This document requires review by Polkin Rishall before final integration into The Elidoras Codex.</p>
`))

type loreItem struct {
	ID     string
	Name   string
	Status string
}

type loreComment struct {
	User string
	Text string
}

type loreData struct {
	Name        string
	Generated   string
	Description string
	Subtasks    []loreItem
	Related     []loreItem
	Comments    []loreComment
}

// LoreDocTitle returns the doc title for a task name.
func LoreDocTitle(taskName string) string {
	return "TEC Lore Drop: " + orDefault(taskName, "Untitled Task")
}

// RenderLoreDoc builds the lore doc HTML. Only the last five comments are quoted.
func RenderLoreDoc(task *model.Task, subtasks []*model.Task, related []model.ScoredTask, comments []*model.TaskComment, generated string) (string, error) {
	data := loreData{
		Name:        orDefault(task.Name, "Untitled Task"),
		Generated:   generated,
		Description: orDefault(task.Description, "No description provided."),
	}
	for _, st := range subtasks {
		data.Subtasks = append(data.Subtasks, loreItem{
			Name:   orDefault(st.Name, "Unnamed subtask"),
			Status: orDefault(st.Status, "Unknown"),
		})
	}
	for _, r := range related {
		data.Related = append(data.Related, loreItem{
			ID:   r.Task.ID,
			Name: orDefault(r.Task.Name, "Unnamed task"),
		})
	}
	if len(comments) > loreHighlights {
		comments = comments[len(comments)-loreHighlights:]
	}
	for _, c := range comments {
		user := "Unknown"
		if c.User != nil && c.User.Username != "" {
			user = c.User.Username
		}
		data.Comments = append(data.Comments, loreComment{User: user, Text: c.Text})
	}

	var buf bytes.Buffer
	if err := loreTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render lore doc: %w", err)
	}
	return buf.String(), nil
}

// GenerateLoreDoc collects a task, its subtasks, related tasks and discussion into a lore
// document, attaches it to the task, moves the task to pre-deploy review and notifies Polkin.
func (s *Service) GenerateLoreDoc(ctx context.Context, taskID string) *model.RunResult {
	result := model.NewRunResult()
	result.SetOutput("task_id", taskID)

	task, err := s.tracker.GetTask(ctx, taskID)
	if err != nil {
		result.Fail(fmt.Errorf("get task: %w", err))
		return result
	}
	comments, err := s.tracker.ListComments(ctx, taskID)
	if err != nil {
		result.Fail(fmt.Errorf("list comments: %w", err))
		return result
	}
	subtasks, err := s.tracker.ListSubtasks(ctx, taskID)
	if err != nil {
		result.Fail(fmt.Errorf("list subtasks: %w", err))
		return result
	}

	var related []model.ScoredTask
	if len(task.Tags) > 0 {
		all, err := s.tracker.ListTasks(ctx, model.TaskQuery{})
		if err != nil {
			result.Fail(fmt.Errorf("find related tasks: %w", err))
		} else {
			related = Related(all, taskID, nil, task.Tags)
		}
	}

	content, err := RenderLoreDoc(task, subtasks, related, comments, s.clock.Now().Format("2006-01-02 15:04"))
	if err != nil {
		result.Fail(err)
		return result
	}

	doc, err := s.tracker.CreateDoc(ctx, LoreDocTitle(task.Name), content)
	if err != nil {
		s.logger.Error("Failed to create lore doc", zap.String("task_id", taskID), zap.Error(err))
		result.Fail(fmt.Errorf("create lore doc: %w", err))
		return result
	}
	result.SetOutput("doc_id", doc.ID)
	result.Action("Created lore doc " + doc.ID)

	if err := s.tracker.AttachDoc(ctx, taskID, doc.ID); err != nil {
		result.Fail(fmt.Errorf("attach doc: %w", err))
	} else {
		result.Action("Attached lore doc to task")
	}

	if err := s.tracker.UpdateStatus(ctx, taskID, s.cfg.Statuses.PolkinPreDeploy); err != nil {
		result.Fail(fmt.Errorf("update status: %w", err))
	} else {
		result.Action("Updated status to " + s.cfg.Statuses.PolkinPreDeploy)
	}

	if polkin := s.cfg.TeamMembers[PolkinRishall]; polkin != "" {
		note := fmt.Sprintf("🔮 @%s Airth Alert: Lore Drop Ready for Pre-Deploy Review - Task: %s", polkin, orDefault(task.Name, "Untitled Task"))
		if err := s.tracker.AddComment(ctx, taskID, note); err != nil {
			result.Fail(fmt.Errorf("notify %s: %w", PolkinRishall, err))
		} else {
			result.Action("Notified " + PolkinRishall)
		}
	}

	s.metrics.RecordTaskProcessed("lore_doc")
	s.logger.Info("Generated lore doc",
		zap.String("task_id", taskID),
		zap.String("doc_id", doc.ID),
	)
	return result
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
