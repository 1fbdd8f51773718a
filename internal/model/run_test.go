package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

func TestRunResult_Record(t *testing.T) {
	t.Run("nil keeps success", func(t *testing.T) {
		r := NewRunResult()
		r.Record(nil)
		assert.Equal(t, RunStatusSuccess, r.Status)
		assert.Empty(t, r.Errors)
	})

	t.Run("filtered", func(t *testing.T) {
		r := NewRunResult()
		r.Record(apperrors.ContentFiltered(""))
		assert.Equal(t, RunStatusFiltered, r.Status)
		assert.Len(t, r.Errors, 1)
	})

	t.Run("error wins over filtered", func(t *testing.T) {
		r := NewRunResult()
		r.Record(errors.New("boom"))
		r.Record(apperrors.ContentFiltered(""))
		assert.Equal(t, RunStatusError, r.Status)
		assert.Equal(t, []string{"boom", "generation result was filtered due to content policy"}, r.Errors)
	})
}

func TestRunResult_Outputs(t *testing.T) {
	r := NewRunResult()
	r.SetOutput("header", "out/block_nexus_header.png")
	r.Inc("posts_created")
	r.Inc("posts_created")
	r.Action("created post")

	assert.Equal(t, "out/block_nexus_header.png", r.Outputs["header"])
	assert.Equal(t, 2, r.Counts["posts_created"])
	assert.Equal(t, []string{"created post"}, r.Actions)
}

func TestTask_HasTag(t *testing.T) {
	task := Task{Tags: []string{"Lore", "content"}}
	assert.True(t, task.HasTag("Lore"))
	assert.True(t, task.HasTag("content"))
	assert.False(t, task.HasTag("lore"))
	assert.False(t, task.HasTag("CONTENT"))
	assert.False(t, task.HasTag("automation"))
}

func TestMemoryType_IsValid(t *testing.T) {
	assert.True(t, MemoryTypeFaction.IsValid())
	assert.False(t, MemoryType("dream").IsValid())
}

func TestRunResult_Absorb(t *testing.T) {
	r := NewRunResult()
	r.Absorb("t1", nil)
	assert.Equal(t, RunStatusSuccess, r.Status)

	filtered := NewRunResult()
	filtered.Record(apperrors.ContentFiltered(""))
	r.Absorb("t1", filtered)
	assert.Equal(t, RunStatusFiltered, r.Status)

	failed := NewRunResult()
	failed.Fail(errors.New("boom"))
	r.Absorb("t2", failed)
	assert.Equal(t, RunStatusError, r.Status)
	assert.Equal(t, "t2: boom", r.Errors[1])

	r.Absorb("", filtered)
	assert.Equal(t, RunStatusError, r.Status)
	assert.Len(t, r.Errors, 3)
}
