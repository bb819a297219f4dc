// Package analyzer defines the contract with the external acoustic
// classification model and provides an HTTP client for it.
package analyzer

import "context"

// Detection is one classifier output: a species identification with a
// confidence score and the offsets of the call within the analyzed window.
type Detection struct {
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	Confidence     float64 `json:"confidence"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
}

// Hints are the location and date context passed alongside the audio so the
// model can narrow its species range.
type Hints struct {
	Latitude      float64
	Longitude     float64
	Date          string // YYYY-MM-DD, zero value omits the hint
	MinConfidence float64
}

// Interface is the boundary to the classification model. Analyze is
// potentially slow (model inference) and potentially failing; callers bound
// it with a context deadline. An empty detection list is a valid result,
// not an error.
type Interface interface {
	Analyze(ctx context.Context, wavData []byte, hints Hints) ([]Detection, error)
}
