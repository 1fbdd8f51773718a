package clickup

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/elidorascodex/tecflow/internal/model"
)

// Wire types for the ClickUp v2 API. Only the fields the workflows read are decoded.

type wireUser struct {
	ID       json.Number `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

func (u *wireUser) toModel() *model.TrackerUser {
	if u == nil || u.ID == "" {
		return nil
	}
	return &model.TrackerUser{ID: u.ID.String(), Username: u.Username, Email: u.Email}
}

type wireTask struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      struct {
		Status string `json:"status"`
	} `json:"status"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Creator   *wireUser  `json:"creator"`
	Assignees []wireUser `json:"assignees"`
	Parent    *string    `json:"parent"`
	List      struct {
		ID string `json:"id"`
	} `json:"list"`
	URL         string     `json:"url"`
	DateCreated string     `json:"date_created"`
	Subtasks    []wireTask `json:"subtasks"`
}

func (w *wireTask) toModel() *model.Task {
	t := &model.Task{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Status:      w.Status.Status,
		Tags:        make([]string, 0, len(w.Tags)),
		Creator:     w.Creator.toModel(),
		ListID:      w.List.ID,
		URL:         w.URL,
		CreatedAt:   parseMillis(w.DateCreated),
	}
	for _, tag := range w.Tags {
		t.Tags = append(t.Tags, tag.Name)
	}
	for i := range w.Assignees {
		if u := w.Assignees[i].toModel(); u != nil {
			t.Assignees = append(t.Assignees, *u)
		}
	}
	if w.Parent != nil {
		t.ParentID = *w.Parent
	}
	return t
}

type wireTaskList struct {
	Tasks    []wireTask `json:"tasks"`
	LastPage bool       `json:"last_page"`
}

type wireComment struct {
	ID          json.Number `json:"id"`
	CommentText string      `json:"comment_text"`
	User        *wireUser   `json:"user"`
	Date        string      `json:"date"`
}

type wireCommentList struct {
	Comments []wireComment `json:"comments"`
}

type wireNewTask struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parent      string   `json:"parent,omitempty"`
	Assignees   []int64  `json:"assignees,omitempty"`
	Status      string   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}

// wireID reads an id either at the top level or nested under one wrapper key.
type wireID struct {
	ID        string `json:"id"`
	Checklist *struct {
		ID string `json:"id"`
	} `json:"checklist"`
	View *struct {
		ID string `json:"id"`
	} `json:"view"`
}

func (w *wireID) value() string {
	switch {
	case w.ID != "":
		return w.ID
	case w.Checklist != nil:
		return w.Checklist.ID
	case w.View != nil:
		return w.View.ID
	}
	return ""
}

// parseMillis converts a ClickUp millisecond timestamp string. Unparseable values give the zero time.
func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// userIDs converts member ids to the numeric form the API expects.
func userIDs(ids []string) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
