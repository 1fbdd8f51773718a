package model

import (
	"time"

	"github.com/google/uuid"
)

// MemoryType classifies a memory.
type MemoryType string

const (
	MemoryTypePersonal     MemoryType = "personal"
	MemoryTypeFaction      MemoryType = "faction"
	MemoryTypeEvent        MemoryType = "event"
	MemoryTypeRelationship MemoryType = "relationship"
	MemoryTypeKnowledge    MemoryType = "knowledge"
)

// MemoryTypes lists the accepted memory types.
var MemoryTypes = []MemoryType{
	MemoryTypePersonal,
	MemoryTypeFaction,
	MemoryTypeEvent,
	MemoryTypeRelationship,
	MemoryTypeKnowledge,
}

// IsValid reports whether t is a known memory type.
func (t MemoryType) IsValid() bool {
	for _, mt := range MemoryTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Memory is a piece of remembered context for the content agent.
type Memory struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Type      MemoryType `json:"type"`
	Keywords  []string   `json:"keywords,omitempty"`
	Source    string     `json:"source,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
