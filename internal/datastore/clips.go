// clips.go manages the MP3 clip files that back ranged audio retrieval.
package datastore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/aviarylab/roost/internal/errors"
)

// safeClipPattern restricts clip names to what Save generates, keeping path
// traversal out of the clip directory.
var safeClipPattern = regexp.MustCompile(`^[a-zA-Z0-9\-]+\.mp3$`)

func (ds *DataStore) clipPath(clipName string) (string, error) {
	if !safeClipPattern.MatchString(clipName) {
		return "", errors.Newf("invalid clip name %q", clipName).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return filepath.Join(ds.clipDir, filepath.Base(clipName)), nil
}

func (ds *DataStore) writeClip(clipName string, clip []byte) error {
	path, err := ds.clipPath(clipName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ds.clipDir, 0o755); err != nil {
		return errors.New(fmt.Errorf("creating clip directory: %w", err)).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Build()
	}
	// Write to a temp name and rename so readers never observe a partial clip.
	tempPath := path + ".temp"
	if err := os.WriteFile(tempPath, clip, 0o644); err != nil {
		return errors.New(fmt.Errorf("writing clip file: %w", err)).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("clip", clipName).
			Build()
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.New(fmt.Errorf("finalizing clip file: %w", err)).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("clip", clipName).
			Build()
	}
	return nil
}

func (ds *DataStore) openClip(clipName string) (io.ReadSeekCloser, int64, error) {
	path, err := ds.clipPath(clipName)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.New(fmt.Errorf("%w: clip %s", errors.ErrNotFound, clipName)).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, 0, errors.New(fmt.Errorf("opening clip file: %w", err)).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("clip", clipName).
			Build()
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, errors.New(fmt.Errorf("stating clip file: %w", err)).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Build()
	}
	return f, info.Size(), nil
}

func (ds *DataStore) removeClip(clipName string) {
	path, err := ds.clipPath(clipName)
	if err != nil {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		ds.logger.Warn("failed to remove clip file", "clip", clipName, "error", err)
	}
}
