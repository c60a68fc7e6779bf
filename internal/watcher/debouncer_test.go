package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []FileEvent, within time.Duration) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "channel closed")
		return batch
	case <-time.After(within):
		t.Fatal("timeout waiting for batch")
		return nil
	}
}

func TestDebouncer_Add_BurstBecomesOneBatch(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(50*time.Millisecond, 4)
	defer d.Stop()

	// When: several files change in quick succession
	for _, p := range []string{"b.txt", "a.txt", "b.txt"} {
		d.Add(FileEvent{Path: p, Operation: OpModify})
		time.Sleep(5 * time.Millisecond)
	}

	// Then: one batch arrives, one event per path, sorted
	batch := receive(t, d.Output(), time.Second)
	require.Len(t, batch, 2)
	assert.Equal(t, "a.txt", batch[0].Path)
	assert.Equal(t, "b.txt", batch[1].Path)
}

func TestDebouncer_Merge(t *testing.T) {
	tests := []struct {
		name   string
		first  Operation
		second Operation
		want   Operation
		keep   bool
	}{
		{"create then modify", OpCreate, OpModify, OpCreate, true},
		{"create then delete", OpCreate, OpDelete, 0, false},
		{"delete then create", OpDelete, OpCreate, OpModify, true},
		{"modify then delete", OpModify, OpDelete, OpDelete, true},
		{"modify then modify", OpModify, OpModify, OpModify, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := merge(FileEvent{Path: "x", Operation: tt.first}, FileEvent{Path: "x", Operation: tt.second})
			assert.Equal(t, tt.keep, keep)
			if keep {
				assert.Equal(t, tt.want, got.Operation)
			}
		})
	}
}

func TestDebouncer_Add_CancelledPairEmitsNothing(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, 1)
	defer d.Stop()

	d.Add(FileEvent{Path: "tmp.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.txt", Operation: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_Stop_ClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Hour, 1)
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.txt", Operation: OpCreate})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
