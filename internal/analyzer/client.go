package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aviarylab/roost/internal/errors"
)

// Client calls the external acoustic classifier over HTTP. The window is posted as
// a WAV body and hints travel as query parameters.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates an analyzer client for the given endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
}

// Analyze posts the WAV container to the classifier and decodes the ranked
// detection list. The caller's context carries the inference deadline.
func (c *Client) Analyze(ctx context.Context, wavData []byte, hints Hints) ([]Detection, error) {
	reqURL, err := c.buildURL(hints)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(wavData))
	if err != nil {
		return nil, errors.New(fmt.Errorf("building analyzer request: %w", err)).
			Component("analyzer").
			Category(errors.CategoryAnalysis).
			Build()
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.New(fmt.Errorf("calling analyzer: %w", err)).
			Component("analyzer").
			Category(errors.CategoryAnalysis).
			Context("endpoint", c.endpoint).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf("analyzer returned status %d: %s", resp.StatusCode, string(body)).
			Component("analyzer").
			Category(errors.CategoryAnalysis).
			Context("status", resp.StatusCode).
			Build()
	}

	var payload struct {
		Detections []Detection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.New(fmt.Errorf("decoding analyzer response: %w", err)).
			Component("analyzer").
			Category(errors.CategoryAnalysis).
			Build()
	}
	return payload.Detections, nil
}

func (c *Client) buildURL(hints Hints) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", errors.New(fmt.Errorf("parsing analyzer endpoint: %w", err)).
			Component("analyzer").
			Category(errors.CategoryConfiguration).
			Build()
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(hints.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(hints.Longitude, 'f', -1, 64))
	q.Set("min_conf", strconv.FormatFloat(hints.MinConfidence, 'f', -1, 64))
	if hints.Date != "" {
		q.Set("date", hints.Date)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
