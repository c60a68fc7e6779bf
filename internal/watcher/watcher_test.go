package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptTxt(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", Operation(99).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	assert.Equal(t, 500*time.Millisecond, opts.Debounce)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
	assert.Equal(t, 16, opts.EventBufferSize)
}

func TestHidden(t *testing.T) {
	assert.True(t, hidden(".git/config"))
	assert.True(t, hidden(filepath.Join("docs", ".cache", "a.txt")))
	assert.False(t, hidden(filepath.Join("docs", "a.txt")))
	assert.False(t, hidden("./a.txt"))
}

func TestDocWatcher_Relevant(t *testing.T) {
	w := New(Options{Accept: acceptTxt, ForcePolling: true})

	assert.True(t, w.relevant("notes.txt", false, OpModify))
	assert.False(t, w.relevant("image.png", false, OpCreate))
	assert.True(t, w.relevant("old-folder", false, OpDelete))
	assert.True(t, w.relevant("sub", true, OpCreate))
	assert.False(t, w.relevant(".hidden.txt", false, OpCreate))
}

func TestDocWatcher_Start_ReportsAcceptedFiles(t *testing.T) {
	// Given: a running watcher on an empty directory
	dir := t.TempDir()
	w := New(Options{Debounce: 50 * time.Millisecond, Accept: acceptTxt})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx, dir) }()
	time.Sleep(100 * time.Millisecond)

	// When: a document and an unrelated file are written
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("hello"), 0o644))

	// Then: only the document is reported
	batch := receive(t, w.Events(), 2*time.Second)
	for _, ev := range batch {
		assert.Equal(t, "doc.txt", ev.Path)
	}
	require.NoError(t, w.Stop())
}

func TestDocWatcher_Start_RejectsMissingRoot(t *testing.T) {
	w := New(Options{})
	defer w.Stop()

	err := w.Start(context.Background(), filepath.Join(t.TempDir(), "absent"))

	assert.Error(t, err)
}

func TestPoller_Diff_DetectsChanges(t *testing.T) {
	// Given: a baseline with one document
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.txt")
	gone := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(keep, []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(gone, []byte("x"), 0o644))

	p := NewPoller(time.Hour, func(rel string, isDir bool, _ Operation) bool { return isDir || acceptTxt(rel) })
	p.state = p.snapshot(dir)

	// When: one file changes size, one is deleted and two are added
	require.NoError(t, os.WriteFile(keep, []byte("version two"), 0o644))
	require.NoError(t, os.Remove(gone))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.bin"), []byte("n"), 0o644))

	// Then: the document changes are reported
	ops := map[string]Operation{}
	for _, ev := range p.Diff(dir) {
		ops[ev.Path] = ev.Operation
	}
	assert.Equal(t, map[string]Operation{
		"keep.txt": OpModify,
		"gone.txt": OpDelete,
		"new.txt":  OpCreate,
	}, ops)

	assert.Empty(t, p.Diff(dir))
}

// countingRebuilder counts rebuilds.
type countingRebuilder struct {
	count atomic.Int64
	mu    sync.Mutex
	err   error
}

func (r *countingRebuilder) Rebuild(context.Context) error {
	r.count.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	// Given: Watch running against a directory
	dir := t.TempDir()
	target := &countingRebuilder{}
	results := make(chan RebuildResult, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, target, Options{Debounce: 50 * time.Millisecond, Accept: acceptTxt}, func(r RebuildResult) {
			results <- r
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// When: a document is added
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))

	// Then: the burst triggers a rebuild
	select {
	case r := <-results:
		assert.NoError(t, r.Err)
		assert.NotEmpty(t, r.Events)
	case <-time.After(3 * time.Second):
		t.Fatal("no rebuild")
	}
	assert.GreaterOrEqual(t, target.count.Load(), int64(1))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return")
	}
}

func TestWatch_PollingBackend(t *testing.T) {
	dir := t.TempDir()
	target := &countingRebuilder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = Watch(ctx, dir, target, Options{
			Debounce:     20 * time.Millisecond,
			PollInterval: 30 * time.Millisecond,
			Accept:       acceptTxt,
			ForcePolling: true,
		}, nil)
	}()
	time.Sleep(80 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0o644))

	assert.Eventually(t, func() bool { return target.count.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
