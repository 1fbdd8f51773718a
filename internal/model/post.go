package model

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusDraft   PostStatus = "draft"
	PostStatusPublish PostStatus = "publish"
	PostStatusPending PostStatus = "pending"
	PostStatusPrivate PostStatus = "private"
)

// NewPost holds the fields for creating a post.
type NewPost struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Excerpt    string     `json:"excerpt,omitempty"`
	Status     PostStatus `json:"status"`
	Categories []int      `json:"categories,omitempty"`
}

// Post is a published or drafted post.
type Post struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Content  string     `json:"content,omitempty"`
	Excerpt  string     `json:"excerpt,omitempty"`
	Status   PostStatus `json:"status"`
	Link     string     `json:"link"`
	Date     time.Time  `json:"date"`
	Modified time.Time  `json:"modified"`
}
