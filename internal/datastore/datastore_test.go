package datastore

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/errors"
	"github.com/aviarylab/roost/internal/logging"
)

func newTestStore(t *testing.T) Interface {
	t.Helper()
	logging.Init(false)

	dir := t.TempDir()
	settings := &conf.Settings{}
	settings.Output.SQLite.Path = filepath.Join(dir, "roost.db")
	settings.Audio.Export.Path = filepath.Join(dir, "clips")

	store := New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecording() *Recording {
	return &Recording{
		CapturedAt: time.Now().Unix(),
		Latitude:   35.42441,
		Longitude:  -120.74629,
		Detections: []Detection{
			{CommonName: "American Robin", ScientificName: "Turdus migratorius", Confidence: 0.83, StartTime: 0, EndTime: 3},
			{CommonName: "House Finch", ScientificName: "Haemorhous mexicanus", Confidence: 0.41, StartTime: 3, EndTime: 6},
		},
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(sampleRecording(), []byte("mp3-bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	require.Len(t, got.Detections, 2)
	// Classifier output order must survive persistence.
	assert.Equal(t, "American Robin", got.Detections[0].CommonName)
	assert.Equal(t, "House Finch", got.Detections[1].CommonName)

	// Repeated reads return identical metadata.
	again, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, got.CapturedAt, again.CapturedAt)
	assert.Equal(t, got.Latitude, again.Latitude)
	assert.Equal(t, got.Longitude, again.Longitude)
}

func TestSaveRejectsEmptyDetections(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRecording()
	rec.Detections = nil
	_, err := store.Save(rec, []byte("mp3-bytes"))
	assert.Error(t, err)

	ids, err := store.AllIDs()
	require.NoError(t, err)
	assert.Empty(t, ids, "no record may be created for an empty detection list")
}

func TestGetMalformedID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("not-a-uuid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidID))
}

func TestGetUnknownID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestOpenClipReadsBackAudio(t *testing.T) {
	store := newTestStore(t)

	clip := []byte("fake mp3 payload for ranged reads")
	id, err := store.Save(sampleRecording(), clip)
	require.NoError(t, err)

	r, size, err := store.OpenClip(id)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(len(clip)), size)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, clip, got)

	// Seek supports partial reads without loading the whole blob.
	_, err = r.Seek(5, io.SeekStart)
	require.NoError(t, err)
	part := make([]byte, 3)
	_, err = io.ReadFull(r, part)
	require.NoError(t, err)
	assert.Equal(t, clip[5:8], part)
}

func TestAllIDsEnumeratesEveryRecord(t *testing.T) {
	store := newTestStore(t)

	var want []string
	for i := 0; i < 3; i++ {
		id, err := store.Save(sampleRecording(), []byte("clip"))
		require.NoError(t, err)
		want = append(want, id)
	}

	ids, err := store.AllIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, want, ids)
}

func TestDeleteAllDropsRecordsAndClips(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(sampleRecording(), []byte("clip"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteAll())

	ids, err := store.AllIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, _, err = store.OpenClip(id)
	assert.Error(t, err)
}
