package tags

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_StripsHash(t *testing.T) {
	v := Static{"#work", "home", "#", "a#b"}
	assert.Equal(t, []string{"work", "home", "b"}, v.AllTags())
}

func TestIndex_SetAndRemove(t *testing.T) {
	idx := NewIndex()
	idx.Set("a.md", []string{"#work", "home", "work"})
	idx.Set("b.md", []string{"work", "dev/go"})

	assert.Equal(t, []string{"dev/go", "home", "work"}, idx.AllTags())
	assert.Equal(t, 2, idx.Count("work"))
	assert.Equal(t, 1, idx.Count("home"))

	idx.Set("a.md", []string{"reading"})
	assert.Equal(t, []string{"dev/go", "reading", "work"}, idx.AllTags())
	assert.Equal(t, 1, idx.Count("work"))

	idx.Remove("b.md")
	assert.Equal(t, []string{"reading"}, idx.AllTags())
	assert.Equal(t, 0, idx.Count("work"))

	idx.Remove("missing.md")
	assert.Equal(t, map[string]int{"totalTags": 1, "indexedNotes": 1}, idx.Stats())
}

func TestIndex_RemoveUnder(t *testing.T) {
	idx := NewIndex()
	idx.Set(filepath.Join("v", "projects", "a.md"), []string{"work", "shared"})
	idx.Set(filepath.Join("v", "projects", "deep", "b.md"), []string{"deep"})
	idx.Set(filepath.Join("v", "projects-old.md"), []string{"shared"})
	idx.Set(filepath.Join("v", "home.md"), []string{"home"})

	assert.Equal(t, 2, idx.RemoveUnder(filepath.Join("v", "projects")+string(filepath.Separator)))
	assert.Equal(t, []string{"home", "shared"}, idx.AllTags())
	assert.Equal(t, 1, idx.Count("shared"))

	assert.Equal(t, 0, idx.RemoveUnder(filepath.Join("v", "missing")))
	assert.Equal(t, 1, idx.RemoveUnder(filepath.Join("v", "home.md")))
	assert.Equal(t, []string{"shared"}, idx.AllTags())
}

func TestIndex_WithPrefix(t *testing.T) {
	idx := NewIndex()
	idx.Set("a.md", []string{"dev/go", "dev/rust", "devops", "home"})
	assert.Equal(t, []string{"dev/go", "dev/rust", "devops"}, idx.WithPrefix("dev"))
	assert.Equal(t, []string{"dev/go", "dev/rust"}, idx.WithPrefix("dev/"))
	assert.Empty(t, idx.WithPrefix("zzz"))
}

func TestIndex_Empty(t *testing.T) {
	idx := NewIndex()
	assert.Empty(t, idx.AllTags())
	assert.Equal(t, 0, idx.Count("x"))
}

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		note        string
		expected    []string
	}{
		{"block list", "---\ntitle: x\ntags:\n  - work\n  - home\n---\nbody", []string{"work", "home"}},
		{"flow list", "---\ntags: [work, \"dev/go\"]\n---\n", []string{"work", "dev/go"}},
		{"string field", "---\ntags: work, home reading\n---\n", []string{"work", "home", "reading"}},
		{"singular key", "---\nTag: solo\n---\n", []string{"solo"}},
		{"hash prefixed", "---\ntags: [\"#work\"]\n---\n", []string{"work"}},
		{"inline body tags", "no frontmatter #idea and (#todo) but not a#b or #123", []string{"idea", "todo"}},
		{"frontmatter then body", "---\ntags: [work]\n---\nsee #Work and #later", []string{"work", "later"}},
		{"numeric yaml value", "---\ntags: [2024, work]\n---\n", []string{"2024", "work"}},
		{"unclosed frontmatter", "---\ntags: [work]\n#idea", []string{"idea"}},
		{"broken yaml", "---\ntags: [work\n---\n#ok", []string{"ok"}},
		{"bom and crlf", "\ufeff---\r\ntags: [work]\r\n---\r\n", []string{"work"}},
		{"empty", "", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, Parse([]byte(tc.note)))
		})
	}
}

func writeNote(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeNote(t, filepath.Join(root, "a.md"), "---\ntags: [work, home]\n---\n")
	writeNote(t, filepath.Join(root, "sub", "b.MD"), "#reading")
	writeNote(t, filepath.Join(root, "sub", "c.txt"), "#ignored")
	writeNote(t, filepath.Join(root, ".obsidian", "d.md"), "#hidden")

	idx := NewIndex()
	n, err := Scan(root, nil, idx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"home", "reading", "work"}, idx.AllTags())
}

func TestScan_Extensions(t *testing.T) {
	root := t.TempDir()
	writeNote(t, filepath.Join(root, "c.txt"), "#plain")

	idx := NewIndex()
	_, err := Scan(root, []string{"txt"}, idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"plain"}, idx.AllTags())
}

func TestMatchExtension(t *testing.T) {
	assert.True(t, MatchExtension("a/b.md", []string{".md"}))
	assert.True(t, MatchExtension("a/b.Md", []string{"md"}))
	assert.False(t, MatchExtension("a/b.txt", []string{".md"}))
	assert.False(t, MatchExtension("a/b", []string{".md"}))
}

func TestWatcher_ReindexesNotes(t *testing.T) {
	root := t.TempDir()
	note := filepath.Join(root, "a.md")
	writeNote(t, note, "#first")

	idx := NewIndex()
	_, err := Scan(root, nil, idx)
	require.NoError(t, err)

	w := NewWatcher(root, nil, idx)
	w.debounce = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeNote(t, note, "#second")
	require.Eventually(t, func() bool {
		return idx.Count("second") == 1 && idx.Count("first") == 0
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Mkdir(filepath.Join(root, "new"), 0755))
	time.Sleep(50 * time.Millisecond)
	writeNote(t, filepath.Join(root, "new", "b.md"), "#fresh")
	require.Eventually(t, func() bool {
		return idx.Count("fresh") == 1
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(note))
	require.Eventually(t, func() bool {
		return idx.Count("second") == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_FolderMovedOut(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeNote(t, filepath.Join(root, "projects", "a.md"), "---\ntags: [stale]\n---\n")
	writeNote(t, filepath.Join(root, "projects", "deep", "b.md"), "#stale #deeper")
	writeNote(t, filepath.Join(root, "keep.md"), "#kept")

	idx := NewIndex()
	_, err := Scan(root, nil, idx)
	require.NoError(t, err)
	require.Equal(t, 2, idx.Count("stale"))

	w := NewWatcher(root, nil, idx)
	w.debounce = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.Rename(filepath.Join(root, "projects"), filepath.Join(outside, "projects")))
	require.Eventually(t, func() bool {
		return idx.Count("stale") == 0 && idx.Count("deeper") == 0
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"kept"}, idx.AllTags())
}

func TestWatcher_FolderRenamedInside(t *testing.T) {
	root := t.TempDir()
	writeNote(t, filepath.Join(root, "old", "a.md"), "#moved")

	idx := NewIndex()
	_, err := Scan(root, nil, idx)
	require.NoError(t, err)

	w := NewWatcher(root, nil, idx)
	w.debounce = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.Rename(filepath.Join(root, "old"), filepath.Join(root, "new")))
	require.Eventually(t, func() bool {
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		_, gone := idx.notes[filepath.Join(root, "old", "a.md")]
		_, found := idx.notes[filepath.Join(root, "new", "a.md")]
		return !gone && found
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, idx.Count("moved"))
}

func TestHidden(t *testing.T) {
	assert.True(t, hidden("/v", "/v/.obsidian/x.md"))
	assert.True(t, hidden("/v", "/v/a/.git"))
	assert.False(t, hidden("/v", "/v/a/b.md"))
}
