// ABOUTME: HTTP client for pushing journal snapshots to a remote API.
// ABOUTME: Mirrors local archives to a team-scoped journals endpoint when configured.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/quill/internal/models"
)

// RemoteClient posts journal snapshots to a remote API.
type RemoteClient struct {
	apiURL string
	apiKey string
	teamID string
	client *http.Client
}

// NewRemoteClient creates a remote client with the given credentials.
func NewRemoteClient(apiURL, apiKey, teamID string) *RemoteClient {
	apiURL = strings.TrimRight(apiURL, "/")
	apiURL = strings.TrimSuffix(apiURL, "/v1")
	return &RemoteClient{
		apiURL: apiURL,
		apiKey: apiKey,
		teamID: teamID,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// remoteJournalPayload is the JSON body sent to the remote journals API.
type remoteJournalPayload struct {
	JournalID string   `json:"journal_id"`
	Title     string   `json:"title"`
	Entries   []string `json:"entries"`
	CreatedAt int64    `json:"created_at"`
	SavedAt   int64    `json:"saved_at"`
}

// remoteJournalResponse maps a single journal from the remote API response.
type remoteJournalResponse struct {
	ID        string   `json:"id"`
	JournalID string   `json:"journal_id"`
	Title     string   `json:"title"`
	Entries   []string `json:"entries"`
	CreatedAt int64    `json:"created_at"`
	SavedAt   int64    `json:"saved_at"`
}

// remoteJournalListResponse is the envelope from GET /teams/{teamID}/journals.
type remoteJournalListResponse struct {
	Journals   []remoteJournalResponse `json:"journals"`
	TotalCount int                     `json:"total_count"`
	HasMore    bool                    `json:"has_more"`
}

// PushSnapshot posts a snapshot to the remote API. Timestamps are Unix milliseconds.
func (r *RemoteClient) PushSnapshot(ctx context.Context, snap *models.JournalSnapshot) error {
	payload := remoteJournalPayload{
		JournalID: snap.ID.String(),
		Title:     snap.Title,
		Entries:   snap.Entries,
		CreatedAt: snap.CreatedAt.UnixMilli(),
		SavedAt:   snap.SavedAt.UnixMilli(),
	}
	if payload.Entries == nil {
		payload.Entries = []string{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.journalsURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("remote API returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// FetchSnapshots reads journal snapshots from the remote API.
func (r *RemoteClient) FetchSnapshots(ctx context.Context, limit int) ([]*models.JournalSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.journalsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", r.apiKey)

	q := req.URL.Query()
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("remote API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var listResp remoteJournalListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	snaps := make([]*models.JournalSnapshot, 0, len(listResp.Journals))
	for _, rj := range listResp.Journals {
		snap := &models.JournalSnapshot{
			Title:   rj.Title,
			Entries: rj.Entries,
			Ref:     rj.ID,
		}
		if id, err := uuid.Parse(rj.JournalID); err == nil {
			snap.ID = id
		}
		if rj.CreatedAt > 0 {
			snap.CreatedAt = time.UnixMilli(rj.CreatedAt)
		}
		if rj.SavedAt > 0 {
			snap.SavedAt = time.UnixMilli(rj.SavedAt)
		}
		snaps = append(snaps, snap)
	}

	return snaps, nil
}

func (r *RemoteClient) journalsURL() string {
	return r.apiURL + "/teams/" + r.teamID + "/journals"
}

// Ping checks credentials by requesting a single journal from the remote API.
func (r *RemoteClient) Ping(ctx context.Context) error {
	_, err := r.FetchSnapshots(ctx, 1)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}
