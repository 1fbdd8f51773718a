package tasks

import (
	"strings"

	"github.com/elidorascodex/tecflow/internal/model"
)

// Relevance weights and the minimum score for a task to count as related.
const (
	tagWeight         = 3
	nameWeight        = 2
	descriptionWeight = 1

	RelevanceThreshold = 3
)

// Score rates how related task is to the given keywords and tags. Every matching tag adds 3,
// every keyword found in the name adds 2 and every keyword found in the description adds 1.
// Keywords match ignoring case; tags must match exactly.
func Score(task *model.Task, keywords, tags []string) int {
	score := 0
	for _, tag := range tags {
		if task.HasTag(tag) {
			score += tagWeight
		}
	}

	name := strings.ToLower(task.Name)
	description := strings.ToLower(task.Description)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(name, kw) {
			score += nameWeight
		}
		if strings.Contains(description, kw) {
			score += descriptionWeight
		}
	}
	return score
}

// Related returns the tasks other than selfID that score at least RelevanceThreshold.
// The result keeps the order of tasks.
func Related(tasks []*model.Task, selfID string, keywords, tags []string) []model.ScoredTask {
	var related []model.ScoredTask
	for _, t := range tasks {
		if t.ID == selfID {
			continue
		}
		if s := Score(t, keywords, tags); s >= RelevanceThreshold {
			related = append(related, model.ScoredTask{Task: *t, Score: s})
		}
	}
	return related
}
