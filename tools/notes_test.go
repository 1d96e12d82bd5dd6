package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNoteStore(t *testing.T, store NoteStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		id, err := store.Create(ctx, &Note{
			Title:   "步骤 1 结论",
			Content: "市场规模约 1.2 万亿，年增速 25%。",
			Type:    "conclusion",
			Tags:    []string{"market", "ev"},
		})
		require.NoError(t, err)
		require.Len(t, id, 8, "note ids are short uuids")

		note, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "步骤 1 结论", note.Title)
		assert.Equal(t, "市场规模约 1.2 万亿，年增速 25%。", note.Content)
		assert.Equal(t, "conclusion", note.Type)
		assert.Equal(t, []string{"market", "ev"}, note.Tags)
		assert.False(t, note.CreatedAt.IsZero())
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, "00000000")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoteNotFound))
	})

	t.Run("CreateRequiresTitleAndContent", func(t *testing.T) {
		_, err := store.Create(ctx, &Note{Title: "只有标题"})
		require.Error(t, err)
		_, err = store.Create(ctx, nil)
		require.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		id, err := store.Create(ctx, &Note{Title: "临时", Content: "内容"})
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, id))
		_, err = store.Get(ctx, id)
		assert.True(t, errors.Is(err, ErrNoteNotFound))
		// Deleting again is not an error
		require.NoError(t, store.Delete(ctx, id))
	})
}

func TestMemoryNoteStore(t *testing.T) {
	testNoteStore(t, NewMemoryNoteStore())
}

func TestFileNoteStore(t *testing.T) {
	store, err := NewFileNoteStore(filepath.Join(t.TempDir(), "notes"))
	require.NoError(t, err)
	testNoteStore(t, store)
}

func TestFileNoteStoreMarkdownFormat(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileNoteStore(dir)
	require.NoError(t, err)

	id, err := store.Create(context.Background(), &Note{
		Title:   "格式检查",
		Content: "# 正文\n\n带 Markdown 结构的内容。",
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, id+".md"))
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "---\n"), "file starts with YAML frontmatter")
	assert.Contains(t, text, "title: 格式检查")
	assert.Contains(t, text, "# 正文")
}

func TestNoteStoreListOrder(t *testing.T) {
	store := NewMemoryNoteStore()
	ctx := context.Background()

	first, err := store.Create(ctx, &Note{Title: "旧", Content: "c", CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	second, err := store.Create(ctx, &Note{Title: "新", Content: "c"})
	require.NoError(t, err)

	notes, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second, notes[0].ID, "newest note comes first")
	assert.Equal(t, first, notes[1].ID)
}

func TestParseNoteMarkdownFallback(t *testing.T) {
	note, err := parseNoteMarkdown("没有 frontmatter 的裸文本")
	require.NoError(t, err)
	assert.Equal(t, "unknown", note.ID)
	assert.Equal(t, "没有 frontmatter 的裸文本", note.Content)
}
