// interfaces.go defines the persistence boundary and its GORM-backed
// implementation shared by concrete stores.
package datastore

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/errors"
	"github.com/aviarylab/roost/internal/logging"
)

// Interface abstracts the underlying persistence so the rest of the service
// never depends on a concrete database.
type Interface interface {
	Open() error
	Close() error
	// Save stores the recording and its clip atomically and returns the
	// assigned id. The recording must carry at least one detection.
	Save(recording *Recording, clip []byte) (string, error)
	// Get returns a recording with its detections in classifier order.
	Get(id string) (*Recording, error)
	// OpenClip returns a seekable reader over the stored clip plus its
	// size, for ranged reads without loading the whole blob.
	OpenClip(id string) (io.ReadSeekCloser, int64, error)
	// AllIDs enumerates every stored recording id, oldest first.
	AllIDs() ([]string, error)
	// DeleteAll drops every recording and clip. Administrative use only.
	DeleteAll() error
}

// DataStore implements Interface on top of a GORM database plus a clip
// directory on disk.
type DataStore struct {
	DB      *gorm.DB
	clipDir string
	logger  *slog.Logger
}

// New creates a store for the configured backend.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{
		DataStore: DataStore{
			clipDir: settings.Audio.Export.Path,
			logger:  logging.ForService("datastore"),
		},
		Settings: settings,
	}
}

// validateID rejects ids that are not UUIDs before they reach the database
// or the filesystem.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(fmt.Errorf("%w: %q", errors.ErrInvalidID, id)).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Save stores the recording row, its detections and the clip file. The clip
// is written first and removed again if the database transaction fails, so
// no partial record becomes visible.
func (ds *DataStore) Save(recording *Recording, clip []byte) (string, error) {
	if ds.DB == nil {
		return "", errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if len(recording.Detections) == 0 {
		return "", errors.Newf("refusing to save a recording without detections").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if len(clip) == 0 {
		return "", errors.Newf("refusing to save a recording without clip audio").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	recording.ID = uuid.NewString()
	recording.ClipName = recording.ID + ".mp3"
	for i := range recording.Detections {
		recording.Detections[i].RecordingID = recording.ID
		recording.Detections[i].Rank = i
	}

	if err := ds.writeClip(recording.ClipName, clip); err != nil {
		return "", err
	}

	if err := ds.DB.Create(recording).Error; err != nil {
		ds.removeClip(recording.ClipName)
		return "", errors.New(fmt.Errorf("saving recording: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("recording_id", recording.ID).
			Build()
	}

	ds.logger.Debug("recording saved",
		"recording_id", recording.ID,
		"detections", len(recording.Detections),
		"clip_bytes", len(clip))
	return recording.ID, nil
}

// Get fetches a recording and its detections in classifier output order.
func (ds *DataStore) Get(id string) (*Recording, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var recording Recording
	err := ds.DB.
		Preload("Detections", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		First(&recording, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(fmt.Errorf("%w: %s", errors.ErrNotFound, id)).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, errors.New(fmt.Errorf("fetching recording: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("recording_id", id).
			Build()
	}
	return &recording, nil
}

// OpenClip opens the stored clip for a recording. Callers close the reader.
func (ds *DataStore) OpenClip(id string) (io.ReadSeekCloser, int64, error) {
	recording, err := ds.Get(id)
	if err != nil {
		return nil, 0, err
	}
	return ds.openClip(recording.ClipName)
}

// AllIDs enumerates stored recording ids, oldest first for a stable listing.
func (ds *DataStore) AllIDs() ([]string, error) {
	var ids []string
	if err := ds.DB.Model(&Recording{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, errors.New(fmt.Errorf("listing recording ids: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return ids, nil
}

// DeleteAll drops all recordings, detections and clip files.
func (ds *DataStore) DeleteAll() error {
	var clipNames []string
	if err := ds.DB.Model(&Recording{}).Pluck("clip_name", &clipNames).Error; err != nil {
		return errors.New(fmt.Errorf("listing clips for removal: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := ds.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Detection{}).Error; err != nil {
		return errors.New(fmt.Errorf("dropping detections: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if err := ds.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Recording{}).Error; err != nil {
		return errors.New(fmt.Errorf("dropping recordings: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	for _, name := range clipNames {
		ds.removeClip(name)
	}
	ds.logger.Info("all recordings dropped", "clips_removed", len(clipNames))
	return nil
}

// performAutoMigration creates or migrates the schema.
func performAutoMigration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Recording{}, &Detection{}); err != nil {
		return errors.New(fmt.Errorf("running schema migration: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}
