package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/shared/clock"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestService(tracker *MockTracker, cfg *Config) *Service {
	return NewService(tracker, cfg, clock.NewFake(testNow), nil, nil)
}

func TestScore(t *testing.T) {
	task := &model.Task{
		ID:          "t1",
		Name:        "Faction Lore: Iron Circle",
		Description: "Describe the iron smiths and their seals",
		Tags:        []string{"Lore", "content"},
	}

	tests := []struct {
		name     string
		keywords []string
		tags     []string
		want     int
	}{
		{"tag match", nil, []string{"Lore"}, 3},
		{"tag match is case sensitive", nil, []string{"lore"}, 0},
		{"two tags", nil, []string{"Lore", "content", "misc"}, 6},
		{"keyword in name and description", []string{"Iron"}, nil, 3},
		{"keyword in description only", []string{"smiths"}, nil, 1},
		{"keyword in name only", []string{"faction"}, nil, 2},
		{"blank keyword ignored", []string{"  "}, nil, 0},
		{"nothing", []string{"xrp"}, []string{"crypto"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(task, tt.keywords, tt.tags))
		})
	}
}

func TestRelated(t *testing.T) {
	tasks := []*model.Task{
		{ID: "self", Name: "lore", Tags: []string{"lore"}},
		{ID: "a", Name: "Lore index", Tags: []string{"lore"}},
		{ID: "b", Name: "Budget"},
		{ID: "c", Name: "Other", Description: "lore notes"},
		{ID: "d", Name: "Lore map"},
	}

	related := Related(tasks, "self", []string{"lore"}, []string{"lore"})
	require.Len(t, related, 1)
	assert.Equal(t, "a", related[0].Task.ID)
	assert.Equal(t, 5, related[0].Score)

	// A name match alone scores 2, below the threshold.
	assert.Empty(t, Related(tasks[3:], "self", []string{"lore"}, nil))
}

func TestService_FindRelated(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, nil)
	ctx := context.Background()

	tracker.On("GetTask", ctx, "self").Return(&model.Task{ID: "self", Tags: []string{"xrp"}}, nil)
	tracker.On("ListTasks", ctx, model.TaskQuery{}).Return([]*model.Task{
		{ID: "self", Tags: []string{"xrp"}},
		{ID: "n1", Tags: []string{"xrp"}},
		{ID: "n2", Tags: []string{"eth"}},
		{ID: "n3", Tags: []string{"XRP"}},
	}, nil)

	related, err := svc.FindRelated(ctx, "self", nil, nil)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "n1", related[0].Task.ID)
	tracker.AssertExpectations(t)
}

func TestService_FindRelatedListFailure(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, nil)
	tracker.On("ListTasks", mock.Anything, mock.Anything).Return(nil, apperrors.Transport("list", 500, ""))

	_, err := svc.FindRelated(context.Background(), "self", []string{"lore"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	tracker.AssertNotCalled(t, "GetTask", mock.Anything, mock.Anything)
}

func expectAssessment(tracker *MockTracker, taskID string) {
	tracker.On("UpdateStatus", mock.Anything, taskID, "AI Analysis").Return(nil)
	tracker.On("AddComment", mock.Anything, taskID, mock.Anything).Return(nil)
	tracker.On("AddTags", mock.Anything, taskID, []string{"AI-Processing"}).Return(nil)
}

func TestService_ProcessAssessmentTrigger(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, nil)
	ctx := context.Background()

	tracker.On("GetTask", ctx, "t1").Return(&model.Task{
		ID:      "t1",
		Name:    "Drop",
		Creator: &model.TrackerUser{ID: "183", Username: "polkin"},
	}, nil)
	tracker.On("AddAssignees", ctx, "t1", []string{"183"}).Return(nil)
	expectAssessment(tracker, "t1")

	result := svc.ProcessAssessmentTrigger(ctx, "t1")

	assert.Equal(t, model.RunStatusSuccess, result.Status)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{
		"Updated status to AI Analysis",
		"Assigned task to creator",
		"Added comment about Task Sentiment analysis",
		"Added comment about AI Task Brief generation",
		"Added AI-Processing tag",
		"Added Airth intervention comment",
	}, result.Actions)
	tracker.AssertCalled(t, "AddComment", ctx, "t1", interventionComment)
	tracker.AssertNumberOfCalls(t, "AddComment", 3)
	tracker.AssertExpectations(t)
}

func TestService_ProcessAssessmentTriggerContinuesAfterFailures(t *testing.T) {
	tracker := new(MockTracker)
	cfg := &Config{CustomFields: map[string]string{FieldAirthActions: "cf-9"}}
	svc := newTestService(tracker, cfg)

	tracker.On("GetTask", mock.Anything, "t1").Return(&model.Task{ID: "t1"}, nil)
	tracker.On("UpdateStatus", mock.Anything, "t1", "AI Analysis").Return(apperrors.Transport("task/t1", 400, "bad status"))
	tracker.On("AddComment", mock.Anything, "t1", mock.Anything).Return(nil)
	tracker.On("AddTags", mock.Anything, "t1", mock.Anything).Return(nil)
	tracker.On("SetCustomField", mock.Anything, "t1", "cf-9", mock.AnythingOfType("string")).Return(nil)

	result := svc.ProcessAssessmentTrigger(context.Background(), "t1")

	assert.Equal(t, model.RunStatusError, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "updated status to ai analysis")
	assert.Contains(t, result.Actions, "Added Airth intervention comment")
	assert.Contains(t, result.Actions, "Recorded actions in custom field")
	tracker.AssertNotCalled(t, "AddAssignees", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ProcessAssessmentTriggerMissingTask(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, nil)
	tracker.On("GetTask", mock.Anything, "gone").Return(nil, apperrors.Transport("task/gone", 404, ""))

	result := svc.ProcessAssessmentTrigger(context.Background(), "gone")
	assert.Equal(t, model.RunStatusError, result.Status)
	assert.Empty(t, result.Actions)
	tracker.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Run(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, &Config{TriggerTags: []string{"content", "1st drop"}})

	tracker.On("ListTasks", mock.Anything, model.TaskQuery{Tags: []string{"content"}}).Return([]*model.Task{
		{ID: "t1", Status: "open"},
		{ID: "t2", Status: "in progress"},
	}, nil)
	tracker.On("ListTasks", mock.Anything, model.TaskQuery{Tags: []string{"1st drop"}}).Return([]*model.Task{
		{ID: "t1", Status: "open"},
		{ID: "t3", Status: ""},
	}, nil)
	for _, id := range []string{"t1", "t3"} {
		tracker.On("GetTask", mock.Anything, id).Return(&model.Task{ID: id}, nil)
		expectAssessment(tracker, id)
	}

	result := svc.Run(context.Background())

	assert.Equal(t, model.RunStatusSuccess, result.Status)
	assert.Equal(t, 4, result.Counts["tasks_found"])
	assert.Equal(t, 2, result.Counts["tasks_processed"])
	tracker.AssertNumberOfCalls(t, "GetTask", 2)
	tracker.AssertNotCalled(t, "GetTask", mock.Anything, "t2")
}

func TestService_RunRecordsListFailures(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, &Config{TriggerTags: []string{"content", "automation"}})

	tracker.On("ListTasks", mock.Anything, model.TaskQuery{Tags: []string{"content"}}).Return(nil, errors.New("rate limited"))
	tracker.On("ListTasks", mock.Anything, model.TaskQuery{Tags: []string{"automation"}}).Return([]*model.Task{{ID: "t9", Status: "Unprocessed"}}, nil)
	tracker.On("GetTask", mock.Anything, "t9").Return(nil, errors.New("gone"))

	result := svc.Run(context.Background())

	assert.Equal(t, model.RunStatusError, result.Status)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "rate limited")
	assert.Equal(t, "t9: get task: gone", result.Errors[1])
	assert.Equal(t, 1, result.Counts["tasks_processed"])
}

func TestRenderLoreDoc(t *testing.T) {
	task := &model.Task{ID: "t1", Name: "Iron <Circle>"}
	subtasks := []*model.Task{{Name: "Draft", Status: "done"}, {}}
	related := []model.ScoredTask{{Task: model.Task{ID: "r1", Name: "Seals"}, Score: 3}}
	var comments []*model.TaskComment
	for i := range 7 {
		comments = append(comments, &model.TaskComment{
			Text: string(rune('a' + i)),
			User: &model.TrackerUser{Username: "polkin"},
		})
	}
	comments = append(comments, &model.TaskComment{Text: "anon"})

	html, err := RenderLoreDoc(task, subtasks, related, comments, "2025-03-14 09:26")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>TEC Lore Drop</h1>")
	assert.Contains(t, html, "<h2>Iron &lt;Circle&gt;</h2>")
	assert.Contains(t, html, "<p><em>Generated on 2025-03-14 09:26</em></p>")
	assert.Contains(t, html, "<div>No description provided.</div>")
	assert.Contains(t, html, "<ul>\n<li>Draft (done)</li>\n<li>Unnamed subtask (Unknown)</li>\n</ul>")
	assert.Contains(t, html, "<li>Seals (ID: r1)</li>")
	assert.NotContains(t, html, "<strong>polkin:</strong> c</p>")
	assert.Contains(t, html, "<strong>polkin:</strong> d</p>")
	assert.Contains(t, html, "<strong>Unknown:</strong> anon</p>")
	assert.Contains(t, html, "review by Polkin Rishall")
}

func TestService_GenerateLoreDoc(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, &Config{TeamMembers: map[string]string{PolkinRishall: "555"}})
	ctx := context.Background()

	tracker.On("GetTask", ctx, "t1").Return(&model.Task{ID: "t1", Name: "Forge", Tags: []string{"lore"}}, nil)
	tracker.On("ListComments", ctx, "t1").Return([]*model.TaskComment{}, nil)
	tracker.On("ListSubtasks", ctx, "t1").Return([]*model.Task{}, nil)
	tracker.On("ListTasks", ctx, model.TaskQuery{}).Return([]*model.Task{
		{ID: "t1", Tags: []string{"lore"}},
		{ID: "t2", Name: "Anvil", Tags: []string{"lore"}},
	}, nil)
	tracker.On("CreateDoc", ctx, "TEC Lore Drop: Forge", mock.MatchedBy(func(html string) bool {
		return strings.Contains(html, "<h2>Forge</h2>") &&
			strings.Contains(html, "Generated on 2025-03-14 09:26") &&
			strings.Contains(html, "<li>Anvil (ID: t2)</li>")
	})).Return(&model.Doc{ID: "doc-1"}, nil)
	tracker.On("AttachDoc", ctx, "t1", "doc-1").Return(nil)
	tracker.On("UpdateStatus", ctx, "t1", "Polkin pre-deploy").Return(nil)
	tracker.On("AddComment", ctx, "t1", "🔮 @555 Airth Alert: Lore Drop Ready for Pre-Deploy Review - Task: Forge").Return(nil)

	result := svc.GenerateLoreDoc(ctx, "t1")

	assert.Equal(t, model.RunStatusSuccess, result.Status)
	assert.Equal(t, "doc-1", result.Outputs["doc_id"])
	tracker.AssertExpectations(t)
}

func TestService_GenerateLoreDocCreateFailure(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, nil)

	tracker.On("GetTask", mock.Anything, "t1").Return(&model.Task{ID: "t1"}, nil)
	tracker.On("ListComments", mock.Anything, "t1").Return([]*model.TaskComment{}, nil)
	tracker.On("ListSubtasks", mock.Anything, "t1").Return([]*model.Task{}, nil)
	tracker.On("CreateDoc", mock.Anything, "TEC Lore Drop: Untitled Task", mock.Anything).
		Return(nil, apperrors.Configuration("clickup", "clickup.workspace_id"))

	result := svc.GenerateLoreDoc(context.Background(), "t1")

	assert.Equal(t, model.RunStatusError, result.Status)
	assert.Contains(t, result.Errors[0], "workspace_id")
	assert.NotContains(t, result.Outputs, "doc_id")
	tracker.AssertNotCalled(t, "ListTasks", mock.Anything, mock.Anything)
	tracker.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func writeTemplates(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestService_BulkImport(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, &Config{TeamMembers: map[string]string{"Airth": "7"}})

	path := writeTemplates(t, `{"tasks": [
		{"name": "Lore drop", "assignees": ["Airth", "99"], "tags": ["lore"],
		 "checklist": [{"name": "draft"}, {"name": "review", "resolved": true}],
		 "subtasks": [{"name": "Sketch"}]},
		{"name": "Broken"},
		{"description": "no name"}
	]}`)

	tracker.On("CreateTask", mock.Anything, mock.MatchedBy(func(nt *model.NewTask) bool {
		return nt.Name == "Lore drop" &&
			assert.ObjectsAreEqual([]string{"7", "99"}, nt.Assignees) &&
			nt.Status == "Open" && nt.Priority == 3 && nt.ParentID == ""
	})).Return(&model.Task{ID: "L1"}, nil)
	tracker.On("AddChecklist", mock.Anything, "L1", "Action Items", []model.ChecklistItem{
		{Name: "draft"}, {Name: "review", Resolved: true},
	}).Return(nil)
	tracker.On("CreateTask", mock.Anything, mock.MatchedBy(func(nt *model.NewTask) bool {
		return nt.Name == "Sketch" && nt.ParentID == "L1"
	})).Return(&model.Task{ID: "S1"}, nil)
	tracker.On("CreateTask", mock.Anything, mock.MatchedBy(func(nt *model.NewTask) bool {
		return nt.Name == "Broken"
	})).Return(nil, apperrors.Transport("list/900/task", 400, "bad"))
	tracker.On("CreateTask", mock.Anything, mock.MatchedBy(func(nt *model.NewTask) bool {
		return nt.Name == "New Task"
	})).Return(&model.Task{ID: "N1"}, nil)

	result := svc.BulkImport(context.Background(), path)

	assert.Equal(t, model.RunStatusError, result.Status)
	assert.Equal(t, 2, result.Counts["tasks_created"])
	assert.Equal(t, 1, result.Counts["failed_tasks"])
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `create task "Broken"`)
	assert.Equal(t, []string{"Created task L1", "Created task N1"}, result.Actions)
	tracker.AssertExpectations(t)
}

func TestService_CreateFromTemplateSubtaskFailure(t *testing.T) {
	tracker := new(MockTracker)
	svc := newTestService(tracker, nil)

	tracker.On("CreateTask", mock.Anything, mock.MatchedBy(func(nt *model.NewTask) bool { return nt.ParentID == "" })).
		Return(&model.Task{ID: "P"}, nil)
	tracker.On("CreateTask", mock.Anything, mock.MatchedBy(func(nt *model.NewTask) bool { return nt.ParentID == "P" })).
		Return(nil, errors.New("boom"))

	task, err := svc.CreateFromTemplate(context.Background(), &model.TaskTemplate{
		Name:     "Parent",
		Subtasks: []model.TaskTemplate{{Name: "Child"}},
	})
	require.NotNil(t, task)
	assert.Equal(t, "P", task.ID)
	assert.ErrorContains(t, err, `create task "Child": boom`)
}

func TestService_BulkImportMissingFile(t *testing.T) {
	svc := newTestService(new(MockTracker), nil)
	result := svc.BulkImport(context.Background(), filepath.Join(t.TempDir(), "none.json"))
	assert.Equal(t, model.RunStatusError, result.Status)
	assert.Contains(t, result.Errors[0], "read templates")
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.ClickUpConfig{})
	assert.Equal(t, "Open", cfg.Statuses.Open)
	assert.Equal(t, "AI Analysis", cfg.Statuses.AIAnalysis)
	assert.Len(t, cfg.TriggerTags, 5)
	assert.Equal(t, "Airth", cfg.memberID("Airth"))
}
