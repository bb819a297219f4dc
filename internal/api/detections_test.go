package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDetectionSuccess(t *testing.T) {
	store := newStubStore()
	id := store.addRecording(t, []byte("clip"))
	c := testController(store, &stubUploader{})

	req := httptest.NewRequest(http.MethodGet, "/detections/"+id, http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecordingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Detections, 1)
	assert.Equal(t, "American Robin", resp.Detections[0].CommonName)
	assert.InDelta(t, 0.8, resp.Detections[0].Confidence, 1e-9)
	assert.NotZero(t, resp.CapturedAt)

	// The id is the lookup key, not part of the payload.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "id")

	// Retrieval is idempotent.
	rec2 := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/detections/"+id, http.NoBody))
	assert.Equal(t, rec.Body.String(), rec2.Body.String())
}

func TestGetDetectionMalformedID(t *testing.T) {
	c := testController(newStubStore(), &stubUploader{})

	req := httptest.NewRequest(http.MethodGet, "/detections/not-a-uuid", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDetectionUnknownID(t *testing.T) {
	c := testController(newStubStore(), &stubUploader{})

	req := httptest.NewRequest(http.MethodGet, "/detections/6ba7b810-9dad-11d1-80b4-00c04fd430c8", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListIDs(t *testing.T) {
	store := newStubStore()
	first := store.addRecording(t, []byte("a"))
	second := store.addRecording(t, []byte("b"))
	c := testController(store, &stubUploader{})

	req := httptest.NewRequest(http.MethodGet, "/uids", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	assert.Equal(t, []string{first, second}, ids)
}

func TestListIDsEmptyStore(t *testing.T) {
	c := testController(newStubStore(), &stubUploader{})

	req := httptest.NewRequest(http.MethodGet, "/uids", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHealthz(t *testing.T) {
	c := testController(newStubStore(), &stubUploader{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
