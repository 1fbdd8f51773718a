package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/model"
	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

const (
	maxTitleRunes = 80
	maxKeywords   = 10
	untitled      = "Untitled memory"
)

// memoryExtensions lists the file types ProcessPath reads.
var memoryExtensions = map[string]bool{".txt": true, ".md": true, ".text": true}

var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true, "because": true, "been": true,
	"before": true, "being": true, "could": true, "does": true, "from": true, "have": true,
	"into": true, "just": true, "more": true, "most": true, "only": true, "other": true,
	"over": true, "some": true, "than": true, "that": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true, "those": true,
	"very": true, "were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "will": true, "with": true, "would": true, "your": true,
}

// SplitChunks splits text on blank lines into chunks of at most maxSize characters.
// A single paragraph longer than maxSize becomes its own chunk.
func SplitChunks(text string, maxSize int) []string {
	var (
		chunks  []string
		current string
	)
	for _, para := range strings.Split(text, "\n\n") {
		switch {
		case current != "" && utf8.RuneCountInString(current)+utf8.RuneCountInString(para) > maxSize:
			chunks = append(chunks, current)
			current = para
		case current != "":
			current += "\n\n" + para
		default:
			current = para
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// ProcessMemory turns raw text into a memory. The title is the first non-empty line.
// An empty type defaults to knowledge.
func (a *Agent) ProcessMemory(text string, memoryType model.MemoryType) (*model.Memory, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("memory text is empty")
	}
	if memoryType == "" {
		memoryType = model.MemoryTypeKnowledge
	}
	if !memoryType.IsValid() {
		return nil, apperrors.Validation("unknown memory type %q, must be one of %v", memoryType, model.MemoryTypes)
	}

	return &model.Memory{
		Title:     memoryTitle(text),
		Content:   text,
		Type:      memoryType,
		Keywords:  extractKeywords(text, maxKeywords),
		CreatedAt: a.clock.Now().UTC(),
	}, nil
}

// AddMemory stores m.
func (a *Agent) AddMemory(ctx context.Context, m *model.Memory) error {
	if a.memories == nil {
		return apperrors.Configuration("memory store", "redis.address")
	}
	if err := a.memories.Add(ctx, m); err != nil {
		return fmt.Errorf("add memory %q: %w", m.Title, err)
	}
	a.metrics.RecordMemoryStored(string(m.Type))
	a.logger.Info("Stored memory",
		zap.String("id", m.ID.String()),
		zap.String("title", m.Title),
		zap.String("type", string(m.Type)),
	)
	return nil
}

// RelevantMemories returns up to the configured number of memories sharing words with
// topic, best match first. Ties keep the store order (newest first).
func (a *Agent) RelevantMemories(ctx context.Context, topic string) ([]*model.Memory, error) {
	if a.memories == nil {
		return nil, nil
	}
	all, err := a.memories.List(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	topicWords := wordSet(topic)
	type scored struct {
		m     *model.Memory
		score int
	}
	var matches []scored
	for _, m := range all {
		memWords := wordSet(m.Title + " " + m.Content + " " + strings.Join(m.Keywords, " "))
		score := 0
		for w := range topicWords {
			if memWords[w] {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{m: m, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	limit := a.cfg.MemoryLimit
	if len(matches) < limit {
		limit = len(matches)
	}
	out := make([]*model.Memory, 0, limit)
	for _, s := range matches[:limit] {
		out = append(out, s.m)
	}
	a.metrics.RecordMemoryRecall(len(out) > 0)
	return out, nil
}

// ProcessPath reads a memory file, or every supported file directly inside a directory,
// chunks the text and stores one memory per chunk. A failed file or chunk is recorded and
// the rest continue.
func (a *Agent) ProcessPath(ctx context.Context, path string, memoryType model.MemoryType) *model.RunResult {
	result := model.NewRunResult()

	info, err := os.Stat(path)
	if err != nil {
		result.Fail(fmt.Errorf("path does not exist: %s", path))
		return result
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			result.Fail(fmt.Errorf("read directory %s: %w", path, err))
			return result
		}
		files = files[:0]
		for _, e := range entries {
			if e.Type().IsRegular() && memoryExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			result.Fail(err)
			break
		}
		added, err := a.processFile(ctx, file, memoryType, result)
		if err != nil {
			result.Fail(fmt.Errorf("%s: %w", filepath.Base(file), err))
			continue
		}
		result.Action(fmt.Sprintf("Added %d memories from %s", added, filepath.Base(file)))
	}
	return result
}

func (a *Agent) processFile(ctx context.Context, path string, memoryType model.MemoryType, result *model.RunResult) (int, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !memoryExtensions[ext] {
		return 0, apperrors.Validation("unsupported file extension %q", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	chunks := SplitChunks(string(data), a.cfg.MaxChunkSize)
	a.logger.Info("Processing memory file",
		zap.String("path", path),
		zap.Int("chunks", len(chunks)),
	)

	added := 0
	for i, chunk := range chunks {
		result.Inc("chunks")
		m, err := a.ProcessMemory(chunk, memoryType)
		if err == nil {
			m.Source = filepath.Base(path)
			err = a.AddMemory(ctx, m)
		}
		if err != nil {
			result.Fail(fmt.Errorf("%s chunk %d: %w", filepath.Base(path), i+1, err))
			continue
		}
		added++
		result.Inc("memories_added")
	}
	return added, nil
}

func memoryTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#*- "))
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleRunes {
			line = string([]rune(line)[:maxTitleRunes])
		}
		return line
	}
	return untitled
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range words(text) {
		if len(w) >= 4 && !stopWords[w] {
			set[w] = true
		}
	}
	return set
}

// extractKeywords returns the n most frequent significant words, first occurrence breaking ties.
func extractKeywords(text string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range words(text) {
		if len(w) < 4 || stopWords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}
