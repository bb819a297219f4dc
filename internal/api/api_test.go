package api

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/datastore"
	"github.com/aviarylab/roost/internal/errors"
	"github.com/aviarylab/roost/internal/observability"
	"github.com/aviarylab/roost/internal/processor"
)

// stubUploader returns a canned processor result or error.
type stubUploader struct {
	result processor.Result
	err    error
	calls  int
	last   []byte
}

func (s *stubUploader) ProcessChunk(ctx context.Context, chunk []byte) (processor.Result, error) {
	s.calls++
	s.last = chunk
	if s.err != nil {
		return processor.Result{}, s.err
	}
	return s.result, nil
}

// clipReader wraps a bytes.Reader with a no-op Close.
type clipReader struct {
	*bytes.Reader
}

func (clipReader) Close() error { return nil }

// stubStore is an in-memory datastore.Interface for handler tests.
type stubStore struct {
	recordings map[string]*datastore.Recording
	clips      map[string][]byte
	ids        []string
	listErr    error
}

func newStubStore() *stubStore {
	return &stubStore{
		recordings: make(map[string]*datastore.Recording),
		clips:      make(map[string][]byte),
	}
}

func (s *stubStore) Open() error  { return nil }
func (s *stubStore) Close() error { return nil }

func (s *stubStore) Save(recording *datastore.Recording, clip []byte) (string, error) {
	id := fmt.Sprintf("6ba7b810-9dad-11d1-80b4-%012d", len(s.ids))
	recording.ID = id
	s.recordings[id] = recording
	s.clips[id] = clip
	s.ids = append(s.ids, id)
	return id, nil
}

func (s *stubStore) Get(id string) (*datastore.Recording, error) {
	if len(id) != 36 {
		return nil, fmt.Errorf("%w: %s", errors.ErrInvalidID, id)
	}
	rec, ok := s.recordings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	return rec, nil
}

func (s *stubStore) OpenClip(id string) (io.ReadSeekCloser, int64, error) {
	if _, err := s.Get(id); err != nil {
		return nil, 0, err
	}
	clip := s.clips[id]
	return clipReader{bytes.NewReader(clip)}, int64(len(clip)), nil
}

func (s *stubStore) AllIDs() ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.ids, nil
}

func (s *stubStore) DeleteAll() error {
	s.recordings = make(map[string]*datastore.Recording)
	s.clips = make(map[string][]byte)
	s.ids = nil
	return nil
}

func (s *stubStore) addRecording(t *testing.T, clip []byte) string {
	t.Helper()
	id, err := s.Save(&datastore.Recording{
		CapturedAt: time.Now().Unix(),
		Latitude:   35.42435,
		Longitude:  -120.74625,
		Detections: []datastore.Detection{
			{CommonName: "American Robin", ScientificName: "Turdus migratorius", Confidence: 0.8, StartTime: 0, EndTime: 3},
		},
	}, clip)
	require.NoError(t, err)
	return id
}

func testController(store *stubStore, uploader Uploader) *Controller {
	settings := &conf.Settings{}
	settings.Audio.MaxUploadKB = 64
	return New(settings, store, uploader, observability.NewMetrics())
}

var errBackend = stderrors.New("backend exploded")
