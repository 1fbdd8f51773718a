// Package clickup implements the task tracker port against the ClickUp v2 REST API.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/infra/httpclient"
	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

const (
	service        = "clickup"
	defaultBaseURL = "https://api.clickup.com/api/v2"
	// pageSize is the fixed page length of the task listing endpoint.
	pageSize = 100
	maxPages = 50
)

// Client talks to ClickUp with a personal API token.
type Client struct {
	cfg     config.ClickUpConfig
	doer    httpclient.Doer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ outbound.TaskTrackerPort = (*Client)(nil)

// NewClient creates a new ClickUp client. m may be nil.
func NewClient(cfg config.ClickUpConfig, doer httpclient.Doer, m *metrics.Metrics, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		doer:    doer,
		metrics: m,
		logger:  logger.Named("clickup"),
	}
}

// ListTasks lists the tasks of the configured list, following pagination.
func (c *Client) ListTasks(ctx context.Context, q model.TaskQuery) ([]*model.Task, error) {
	if err := c.require(true, false); err != nil {
		return nil, err
	}

	query := url.Values{}
	for _, s := range q.Statuses {
		query.Add("statuses[]", s)
	}
	for _, t := range q.Tags {
		query.Add("tags[]", t)
	}

	var tasks []*model.Task
	for page := 0; page < maxPages; page++ {
		query.Set("page", strconv.Itoa(page))
		var out wireTaskList
		if err := c.doJSON(ctx, http.MethodGet, "list_tasks", "list/"+c.cfg.ListID+"/task", query, nil, &out); err != nil {
			return nil, err
		}
		for i := range out.Tasks {
			tasks = append(tasks, out.Tasks[i].toModel())
		}
		if out.LastPage || len(out.Tasks) < pageSize {
			break
		}
	}

	c.logger.Debug("Retrieved tasks",
		zap.String("list_id", c.cfg.ListID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

// GetTask fetches a task by ID.
func (c *Client) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	w, err := c.getTask(ctx, taskID, false)
	if err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

// UpdateStatus sets the status of a task.
func (c *Client) UpdateStatus(ctx context.Context, taskID, status string) error {
	if err := c.require(false, false); err != nil {
		return err
	}
	c.logger.Info("Updating task status",
		zap.String("task_id", taskID),
		zap.String("status", status),
	)
	return c.doJSON(ctx, http.MethodPut, "update_task", "task/"+taskID, nil, map[string]any{"status": status}, nil)
}

// AddAssignees adds members to a task. Member ids must be numeric.
func (c *Client) AddAssignees(ctx context.Context, taskID string, userIDs ...string) error {
	if err := c.require(false, false); err != nil {
		return err
	}
	ids, err := toUserIDs(userIDs)
	if err != nil {
		return err
	}
	body := map[string]any{"assignees": map[string]any{"add": ids, "rem": []int64{}}}
	return c.doJSON(ctx, http.MethodPut, "update_task", "task/"+taskID, nil, body, nil)
}

// AddTags adds tags to a task. Each tag is a separate call; all tags are attempted.
func (c *Client) AddTags(ctx context.Context, taskID string, tags ...string) error {
	if err := c.require(false, false); err != nil {
		return err
	}
	var errs []error
	for _, tag := range tags {
		p := "task/" + taskID + "/tag/" + url.PathEscape(tag)
		if err := c.doJSON(ctx, http.MethodPost, "add_tag", p, nil, nil, nil); err != nil {
			errs = append(errs, fmt.Errorf("tag %q: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

// AddComment posts a comment on a task.
func (c *Client) AddComment(ctx context.Context, taskID, text string) error {
	if err := c.require(false, false); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "add_comment", "task/"+taskID+"/comment", nil,
		map[string]any{"comment_text": text}, nil)
}

// SetCustomField sets a custom field value on a task.
func (c *Client) SetCustomField(ctx context.Context, taskID, fieldID string, value any) error {
	if err := c.require(false, false); err != nil {
		return err
	}
	if fieldID == "" {
		return apperrors.Validation("custom field id is empty")
	}
	return c.doJSON(ctx, http.MethodPost, "set_field", "task/"+taskID+"/field/"+fieldID, nil,
		map[string]any{"value": value}, nil)
}

// CreateTask creates a task, or a subtask when ParentID is set.
func (c *Client) CreateTask(ctx context.Context, t *model.NewTask) (*model.Task, error) {
	if err := c.require(true, false); err != nil {
		return nil, err
	}
	ids, err := toUserIDs(t.Assignees)
	if err != nil {
		return nil, err
	}
	body := wireNewTask{
		Name:        t.Name,
		Description: t.Description,
		Parent:      t.ParentID,
		Assignees:   ids,
		Status:      t.Status,
		Tags:        t.Tags,
		Priority:    t.Priority,
	}

	var out wireTask
	if err := c.doJSON(ctx, http.MethodPost, "create_task", "list/"+c.cfg.ListID+"/task", nil, body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, apperrors.Malformed("create task %q: response has no id", t.Name)
	}
	c.logger.Info("Created task",
		zap.String("task_id", out.ID),
		zap.String("parent", t.ParentID),
	)
	return out.toModel(), nil
}

// AddChecklist creates a checklist on a task and adds each item. Item failures do not stop
// the remaining items.
func (c *Client) AddChecklist(ctx context.Context, taskID, name string, items []model.ChecklistItem) error {
	if err := c.require(false, false); err != nil {
		return err
	}
	var created wireID
	if err := c.doJSON(ctx, http.MethodPost, "create_checklist", "task/"+taskID+"/checklist", nil,
		map[string]any{"name": name}, &created); err != nil {
		return err
	}
	checklistID := created.value()
	if checklistID == "" {
		return apperrors.Malformed("create checklist on task %s: response has no id", taskID)
	}

	var errs []error
	for _, item := range items {
		body := map[string]any{"name": item.Name, "resolved": item.Resolved}
		if err := c.doJSON(ctx, http.MethodPost, "create_checklist_item", "checklist/"+checklistID+"/checklist_item", nil, body, nil); err != nil {
			errs = append(errs, fmt.Errorf("checklist item %q: %w", item.Name, err))
		}
	}
	return errors.Join(errs...)
}

// CreateDoc creates a document view in the workspace.
func (c *Client) CreateDoc(ctx context.Context, name, content string) (*model.Doc, error) {
	if err := c.require(false, true); err != nil {
		return nil, err
	}
	body := map[string]any{
		"name": name,
		"type": "doc",
		"content": map[string]any{
			"type":    "doc",
			"content": content,
		},
	}
	var out wireID
	if err := c.doJSON(ctx, http.MethodPost, "create_doc", "team/"+c.cfg.WorkspaceID+"/view", nil, body, &out); err != nil {
		return nil, err
	}
	id := out.value()
	if id == "" {
		return nil, apperrors.Malformed("create doc %q: response has no id", name)
	}
	c.logger.Info("Created doc", zap.String("doc_id", id))
	return &model.Doc{ID: id, Name: name}, nil
}

// AttachDoc links a document to a task.
func (c *Client) AttachDoc(ctx context.Context, taskID, docID string) error {
	if err := c.require(false, false); err != nil {
		return err
	}
	body := map[string]any{"links_to": docID, "relationship_type": "doc"}
	return c.doJSON(ctx, http.MethodPost, "attach_doc", "task/"+taskID+"/relationship", nil, body, nil)
}

// ListComments lists the comments of a task, oldest first.
func (c *Client) ListComments(ctx context.Context, taskID string) ([]*model.TaskComment, error) {
	if err := c.require(false, false); err != nil {
		return nil, err
	}
	var out wireCommentList
	if err := c.doJSON(ctx, http.MethodGet, "list_comments", "task/"+taskID+"/comment", nil, nil, &out); err != nil {
		return nil, err
	}

	comments := make([]*model.TaskComment, 0, len(out.Comments))
	for _, wc := range out.Comments {
		comments = append(comments, &model.TaskComment{
			ID:        wc.ID.String(),
			Text:      wc.CommentText,
			User:      wc.User.toModel(),
			CreatedAt: parseMillis(wc.Date),
		})
	}
	// The API returns newest first.
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return comments, nil
}

// ListSubtasks lists the subtasks of a task.
func (c *Client) ListSubtasks(ctx context.Context, taskID string) ([]*model.Task, error) {
	w, err := c.getTask(ctx, taskID, true)
	if err != nil {
		return nil, err
	}
	subtasks := make([]*model.Task, 0, len(w.Subtasks))
	for i := range w.Subtasks {
		subtasks = append(subtasks, w.Subtasks[i].toModel())
	}
	return subtasks, nil
}

func (c *Client) getTask(ctx context.Context, taskID string, withSubtasks bool) (*wireTask, error) {
	if err := c.require(false, false); err != nil {
		return nil, err
	}
	var query url.Values
	if withSubtasks {
		query = url.Values{"include_subtasks": {"true"}}
	}
	var out wireTask
	if err := c.doJSON(ctx, http.MethodGet, "get_task", "task/"+taskID, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// require checks the token plus the identifiers an operation needs.
func (c *Client) require(list, workspace bool) error {
	var missing []string
	if c.cfg.APIToken == "" {
		missing = append(missing, "clickup.api_token")
	}
	if list && c.cfg.ListID == "" {
		missing = append(missing, "clickup.list_id")
	}
	if workspace && c.cfg.WorkspaceID == "" {
		missing = append(missing, "clickup.workspace_id")
	}
	if len(missing) > 0 {
		return apperrors.Configuration(service, missing...)
	}
	return nil
}

// doJSON sends a JSON request and decodes a JSON response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, op, path string, query url.Values, in, out any) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	// ClickUp personal tokens are sent without a scheme.
	req.Header.Set("Authorization", c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(service, op, 0, time.Since(start))
		return apperrors.Transport(path, 0, "").Wrap(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.RecordUpstream(service, op, resp.StatusCode, time.Since(start))
	if err != nil {
		return apperrors.Transport(path, resp.StatusCode, "").Wrap(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("API request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return apperrors.Transport(path, resp.StatusCode, string(respBody))
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.Malformed("decode %s response", op).Wrap(err)
	}
	return nil
}

func toUserIDs(ids []string) ([]int64, error) {
	out, err := userIDs(ids)
	if err != nil {
		return nil, apperrors.Validation("member ids must be numeric: %v", ids)
	}
	return out, nil
}
