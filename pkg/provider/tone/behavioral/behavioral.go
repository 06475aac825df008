// Package behavioral provides a tone.Provider backed by the Behavioral
// Signals v5 HTTP API.
//
// A window is uploaded as a multipart WAV file to
// {base}/clients/{clientID}/processes/audio, which returns a process ID.
// Process status is polled at {base}/clients/{clientID}/processes/{pid}
// (status 2 means done) and results are fetched from the /results
// sub-resource. Per-task final labels are extracted from the results array;
// "asr" tasks are skipped because transcription is handled by a dedicated
// pipeline.
package behavioral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
)

// Compile-time assertion that Provider implements tone.Provider.
var _ tone.Provider = (*Provider)(nil)

const (
	defaultBaseURL = "https://api.behavioralsignals.com/v5"
	defaultTimeout = 30 * time.Second
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithBaseURL overrides the default API base URL. Primarily used in tests to
// point at a local mock server. A trailing slash is stripped.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements tone.Provider against the Behavioral Signals API.
// Safe for concurrent use.
type Provider struct {
	clientID   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Provider for the given account. clientID and apiKey must be
// non-empty.
func New(clientID, apiKey string, opts ...Option) (*Provider, error) {
	if clientID == "" {
		return nil, errors.New("behavioral: clientID must not be empty")
	}
	if apiKey == "" {
		return nil, errors.New("behavioral: apiKey must not be empty")
	}
	p := &Provider{
		clientID:   clientID,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Meta implements tone.Provider.
func (p *Provider) Meta() tone.Meta {
	return tone.Meta{
		ClientID: p.clientID,
		Endpoint: p.submitURL(),
	}
}

func (p *Provider) submitURL() string {
	return fmt.Sprintf("%s/clients/%s/processes/audio", p.baseURL, p.clientID)
}

func (p *Provider) processURL(jobID string) string {
	return fmt.Sprintf("%s/clients/%s/processes/%s", p.baseURL, p.clientID, jobID)
}

// Submit implements tone.Provider. It uploads wav as a multipart form file
// and returns the backend process ID.
func (p *Provider) Submit(ctx context.Context, wav []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("behavioral: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("behavioral: write wav data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("behavioral: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.submitURL(), &body)
	if err != nil {
		return "", fmt.Errorf("behavioral: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	p.setAuth(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("behavioral: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("behavioral: submit returned HTTP %d", resp.StatusCode)
	}

	var created struct {
		PID json.Number `json:"pid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("behavioral: parse submit response: %w", err)
	}
	if created.PID.String() == "" {
		return "", errors.New("behavioral: submit response carried no pid")
	}
	return created.PID.String(), nil
}

// Poll implements tone.Provider. A backend status of 2 is terminal success;
// negative statuses are terminal failure; anything else is still pending.
func (p *Provider) Poll(ctx context.Context, jobID string) (tone.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.processURL(jobID), nil)
	if err != nil {
		return tone.StatusFailed, fmt.Errorf("behavioral: create request: %w", err)
	}
	p.setAuth(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return tone.StatusFailed, fmt.Errorf("behavioral: poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Transient upstream errors are reported as pending so the caller's
		// attempt ceiling decides when to give up.
		return tone.StatusPending, nil
	}

	var status struct {
		Status int `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return tone.StatusPending, nil
	}

	switch {
	case status.Status == 2:
		return tone.StatusDone, nil
	case status.Status < 0:
		return tone.StatusFailed, nil
	default:
		return tone.StatusPending, nil
	}
}

// FetchResult implements tone.Provider. It retrieves and parses the results
// document, extracting the final label of every non-ASR task.
func (p *Provider) FetchResult(ctx context.Context, jobID string) (*tone.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.processURL(jobID)+"/results", nil)
	if err != nil {
		return nil, fmt.Errorf("behavioral: create request: %w", err)
	}
	p.setAuth(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("behavioral: fetch results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("behavioral: results returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("behavioral: read results body: %w", err)
	}

	labels, err := parseLabels(raw)
	if err != nil {
		return nil, err
	}

	return &tone.Result{
		Labels:     labels,
		Raw:        raw,
		StatusCode: resp.StatusCode,
	}, nil
}

// resultItem is one entry of the backend's results array.
type resultItem struct {
	Task       string  `json:"task"`
	FinalLabel *string `json:"finalLabel"`
}

// parseLabels extracts task → finalLabel pairs from a results document.
// Entries without a task or label, and "asr" entries, are skipped.
func parseLabels(raw []byte) (map[string]string, error) {
	var doc struct {
		Results []resultItem `json:"results"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("behavioral: parse results: %w", err)
	}

	labels := make(map[string]string, len(doc.Results))
	for _, item := range doc.Results {
		if item.Task == "" || strings.EqualFold(item.Task, "asr") {
			continue
		}
		if item.FinalLabel == nil {
			continue
		}
		labels[item.Task] = *item.FinalLabel
	}
	return labels, nil
}

// setAuth attaches the account credentials to an outbound request.
func (p *Provider) setAuth(req *http.Request) {
	req.Header.Set("X-Auth-Token", p.apiKey)
	req.Header.Set("Accept", "application/json")
}
