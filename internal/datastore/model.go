// model.go defines the persisted data model for analyzed windows.
package datastore

import "time"

// Recording is one persisted analysis result: the detections reported for a
// window together with capture metadata and the name of the stored clip.
// Records are immutable after creation.
type Recording struct {
	ID         string      `gorm:"primaryKey;size:36"`
	CapturedAt int64       `gorm:"index;not null"` // unix seconds
	Latitude   float64     // jittered, never the exact station position
	Longitude  float64     // jittered, never the exact station position
	ClipName   string      // file name of the MP3 clip under the clip directory
	Detections []Detection `gorm:"foreignKey:RecordingID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
}

// Detection is one classifier result row linked to a Recording. Rank
// preserves the classifier's output order across retrievals.
type Detection struct {
	ID             uint   `gorm:"primaryKey"`
	RecordingID    string `gorm:"index;size:36;not null"`
	Rank           int    `gorm:"not null"`
	CommonName     string
	ScientificName string
	Confidence     float64
	StartTime      float64
	EndTime        float64
}
