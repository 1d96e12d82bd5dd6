package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrNoteNotFound is returned when the requested note id does not exist.
var ErrNoteNotFound = errors.New("tools: note not found")

// Note 是一条研究笔记：规划节点用它保存步骤产出，撰写节点回读汇总。
type Note struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Content   string    `yaml:"-" json:"content"`
	Type      string    `yaml:"type" json:"type"`
	Tags      []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// NoteStore 抽象笔记持久化。
type NoteStore interface {
	// Create saves a new note and returns its generated id.
	Create(ctx context.Context, note *Note) (string, error)
	// Get returns the note with the given id.
	Get(ctx context.Context, id string) (*Note, error)
	// List returns all notes, newest first.
	List(ctx context.Context) ([]*Note, error)
	// Delete removes a note. Deleting a missing note is not an error.
	Delete(ctx context.Context, id string) error
}

// newNoteID 生成 8 位短 id，笔记数量级下冲突概率可以忽略。
func newNoteID() string {
	return uuid.NewString()[:8]
}

func prepareNote(note *Note) error {
	if note == nil || note.Title == "" || note.Content == "" {
		return fmt.Errorf("tools: note requires title and content")
	}
	if note.ID == "" {
		note.ID = newNoteID()
	}
	if note.Type == "" {
		note.Type = "general"
	}
	now := time.Now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	return nil
}

// MemoryNoteStore is a process-local NoteStore.
type MemoryNoteStore struct {
	mu    sync.RWMutex
	notes map[string]*Note
	order []string
}

// NewMemoryNoteStore creates an empty in-memory note store.
func NewMemoryNoteStore() *MemoryNoteStore {
	return &MemoryNoteStore{notes: make(map[string]*Note)}
}

func (s *MemoryNoteStore) Create(_ context.Context, note *Note) (string, error) {
	if err := prepareNote(note); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *note
	s.notes[note.ID] = &copied
	s.order = append(s.order, note.ID)
	return note.ID, nil
}

func (s *MemoryNoteStore) Get(_ context.Context, id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	copied := *note
	return &copied, nil
}

func (s *MemoryNoteStore) List(_ context.Context) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Note, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if note, ok := s.notes[s.order[i]]; ok {
			copied := *note
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *MemoryNoteStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
	return nil
}

// FileNoteStore 把每条笔记落盘为一个 Markdown 文件，YAML frontmatter
// 存元数据，正文即笔记内容。
type FileNoteStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileNoteStore creates a note store rooted at dir.
func NewFileNoteStore(dir string) (*FileNoteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tools: create notes dir: %w", err)
	}
	return &FileNoteStore{dir: dir}, nil
}

func (s *FileNoteStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("tools: invalid note id %q", id)
	}
	return filepath.Join(s.dir, id+".md"), nil
}

func (s *FileNoteStore) Create(_ context.Context, note *Note) (string, error) {
	if err := prepareNote(note); err != nil {
		return "", err
	}
	path, err := s.path(note.ID)
	if err != nil {
		return "", err
	}

	frontmatter, err := yaml.Marshal(note)
	if err != nil {
		return "", fmt.Errorf("tools: marshal note frontmatter: %w", err)
	}
	var buf strings.Builder
	buf.WriteString("---\n")
	buf.Write(frontmatter)
	buf.WriteString("---\n\n")
	buf.WriteString(note.Content)

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(buf.String()), 0o644); err != nil {
		return "", fmt.Errorf("tools: write note: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("tools: commit note: %w", err)
	}
	return note.ID, nil
}

func (s *FileNoteStore) Get(_ context.Context, id string) (*Note, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("tools: read note: %w", err)
	}
	return parseNoteMarkdown(string(raw))
}

func (s *FileNoteStore) List(ctx context.Context) ([]*Note, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("tools: list notes: %w", err)
	}
	var notes []*Note
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		note, err := s.Get(ctx, strings.TrimSuffix(name, ".md"))
		if err != nil {
			continue
		}
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *FileNoteStore) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("tools: delete note: %w", err)
	}
	return nil
}

// parseNoteMarkdown 解析 frontmatter + 正文；没有 frontmatter 的文件
// 整体当作内容兜底。
func parseNoteMarkdown(raw string) (*Note, error) {
	const marker = "---\n"
	if strings.HasPrefix(raw, marker) {
		rest := raw[len(marker):]
		if end := strings.Index(rest, "\n"+marker); end >= 0 {
			var note Note
			if err := yaml.Unmarshal([]byte(rest[:end]), &note); err == nil {
				note.Content = strings.TrimPrefix(rest[end+1+len(marker):], "\n")
				return &note, nil
			}
		}
	}
	return &Note{ID: "unknown", Title: "Unknown", Type: "general", Content: raw}, nil
}
