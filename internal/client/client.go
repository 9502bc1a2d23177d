// Package client is the typed HTTP client CLI commands use to talk to a
// running nudge daemon.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultServerURL = "http://127.0.0.1:38800"
	httpTimeout      = 5 * time.Second
)

// Client talks to the nudge server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a daemon client. Respects the NUDGE_URL env var, falls back
// to http://127.0.0.1:38800.
func New() *Client {
	url := os.Getenv("NUDGE_URL")
	if url == "" {
		url = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: url,
	}
}

func (c *Client) post(path string, body []byte) ([]byte, error) {
	resp, err := c.http.Post(c.serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.serverURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Recommendation mirrors the server's recommendation view.
type Recommendation struct {
	ID              string `json:"id"`
	Module          string `json:"module"`
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	Why             string `json:"why"`
	Confidence      string `json:"confidence"`
	EvidenceSummary string `json:"evidence_summary"`
	Status          string `json:"status"`
	ExpiresAt       int64  `json:"expires_at"`
}

// Active returns the current active recommendations.
func (c *Client) Active() ([]Recommendation, error) {
	data, err := c.get("/api/recommendations")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return resp.Recommendations, nil
}

// GestureOutcome reports what a forwarded gesture resolved to.
type GestureOutcome struct {
	Outcome        string          `json:"outcome"` // "resolved" or "rest"
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Gesture forwards an end-of-gesture displacement for the given
// recommendation and returns the resolution outcome.
func (c *Client) Gesture(id string, displacement, extent float64) (*GestureOutcome, error) {
	body, err := json.Marshal(map[string]float64{
		"displacement": displacement,
		"extent":       extent,
	})
	if err != nil {
		return nil, fmt.Errorf("encode gesture: %w", err)
	}
	data, err := c.post("/api/recommendations/"+id+"/gesture", body)
	if err != nil {
		return nil, err
	}
	var out GestureOutcome
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode gesture outcome: %w", err)
	}
	return &out, nil
}

// Generate triggers a manual generation pass and returns the number of
// recommendations created.
func (c *Client) Generate() (int, error) {
	data, err := c.post("/api/generate", nil)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Created int `json:"created"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("decode generate response: %w", err)
	}
	return resp.Created, nil
}

// Limits is the quota display shape.
type Limits struct {
	Total         int    `json:"total"`
	Used          int    `json:"used"`
	Remaining     int    `json:"remaining"`
	NextRefreshAt int64  `json:"next_refresh_at"`
	Refreshes     string `json:"refreshes"`
}

// Limits returns the current quota state.
func (c *Client) Limits() (*Limits, error) {
	data, err := c.get("/api/limits")
	if err != nil {
		return nil, err
	}
	var lim Limits
	if err := json.Unmarshal(data, &lim); err != nil {
		return nil, fmt.Errorf("decode limits: %w", err)
	}
	return &lim, nil
}

// HistoryEntry is one activity log line.
type HistoryEntry struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	CreatedAt int64  `json:"created_at"`
}

// History returns recent activity log entries.
func (c *Client) History(limit int) ([]HistoryEntry, error) {
	data, err := c.get(fmt.Sprintf("/api/history?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var resp struct {
		Entries []HistoryEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return resp.Entries, nil
}
