package model

import "time"

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}
