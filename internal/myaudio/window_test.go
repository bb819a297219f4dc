package myaudio

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowRejectsZeroCapacity(t *testing.T) {
	_, err := NewWindow(0)
	assert.Error(t, err)
	_, err = NewWindow(-3)
	assert.Error(t, err)
}

func TestWindowNeverExceedsCapacity(t *testing.T) {
	w, err := NewWindow(3)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		w.Append([]byte{byte(i)})
		assert.LessOrEqual(t, w.Len(), 3)
	}
	// Only the three newest chunks survive, in arrival order.
	assert.Equal(t, []byte{7, 8, 9}, w.Snapshot())
}

func TestWindowSnapshotIsConcatenationInArrivalOrder(t *testing.T) {
	w, err := NewWindow(5)
	require.NoError(t, err)

	var want []byte
	for i := 0; i < 5; i++ {
		chunk := bytes.Repeat([]byte{byte(i + 1)}, 4)
		w.Append(chunk)
		want = append(want, chunk...)
	}
	assert.Equal(t, want, w.Snapshot())
}

func TestWindowCapacityOneKeepsNewestOnly(t *testing.T) {
	w, err := NewWindow(1)
	require.NoError(t, err)

	w.Append([]byte("first"))
	got := w.AppendAndSnapshot([]byte("second"))
	assert.Equal(t, []byte("second"), got)
	assert.Equal(t, 1, w.Len())
}

func TestWindowAppendCopiesChunk(t *testing.T) {
	w, err := NewWindow(1)
	require.NoError(t, err)

	chunk := []byte{1, 2, 3}
	w.Append(chunk)
	chunk[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, w.Snapshot(), "caller mutation must not tear the window")
}

func TestWindowConcurrentAppendsAreNotLost(t *testing.T) {
	const workers = 8
	const perWorker = 50

	w, err := NewWindow(workers * perWorker)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				chunk := []byte(fmt.Sprintf("%d:%d;", g, i))
				snap := w.AppendAndSnapshot(chunk)
				// The snapshot taken in the same critical section must
				// contain the chunk that was just appended.
				assert.True(t, bytes.Contains(snap, chunk))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, w.Len(), "no append may be lost")
}
