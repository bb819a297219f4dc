package myaudio

import (
	"fmt"
	"sync"
)

// Window is a bounded FIFO of raw audio chunks. Every upload appends the
// newest chunk and the oldest chunks are evicted once capacity is exceeded.
// The zero value is not usable, construct with NewWindow.
//
// Window is shared by all concurrent upload requests, so appends and
// snapshots go through one mutex. Analysis and transcoding must happen
// outside the critical section.
type Window struct {
	mu       sync.Mutex
	capacity int
	chunks   [][]byte
}

// NewWindow creates a rolling window holding at most capacity chunks.
func NewWindow(capacity int) (*Window, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("window capacity must be at least 1, got %d", capacity)
	}
	return &Window{
		capacity: capacity,
		chunks:   make([][]byte, 0, capacity),
	}, nil
}

// Append adds a chunk to the tail, evicting from the head when full. The
// chunk is copied so later mutation by the caller cannot tear a snapshot.
func (w *Window) Append(chunk []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.append(chunk)
}

// Snapshot returns the byte concatenation of all retained chunks in arrival
// order, taken atomically with respect to concurrent appends.
func (w *Window) Snapshot() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// AppendAndSnapshot performs an append and returns the resulting window in a
// single critical section, so the snapshot is guaranteed to include exactly
// the chunks present right after this append.
func (w *Window) AppendAndSnapshot(chunk []byte) []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.append(chunk)
	return w.snapshot()
}

// Len returns the number of retained chunks.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.chunks)
}

// Capacity returns the fixed maximum number of retained chunks.
func (w *Window) Capacity() int {
	return w.capacity
}

func (w *Window) append(chunk []byte) {
	owned := make([]byte, len(chunk))
	copy(owned, chunk)
	w.chunks = append(w.chunks, owned)
	if excess := len(w.chunks) - w.capacity; excess > 0 {
		w.chunks = w.chunks[excess:]
	}
}

func (w *Window) snapshot() []byte {
	total := 0
	for _, c := range w.chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range w.chunks {
		out = append(out, c...)
	}
	return out
}
