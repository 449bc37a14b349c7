package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client is a thin JSON client over the judging API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type apiError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// isDuplicate reports whether err is the duplicate submission rejection.
func isDuplicate(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Code == "duplicate_submission"
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

type teamSeed struct {
	Name string `json:"name"`
}

type judgeSeed struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type createEventRequest struct {
	Name   string      `json:"name"`
	Teams  []teamSeed  `json:"teams"`
	Judges []judgeSeed `json:"judges"`
}

func (c *client) createEvent(ctx context.Context, req createEventRequest) (eventResponse, error) {
	var ev eventResponse
	err := c.do(ctx, http.MethodPost, "/events", req, &ev)
	return ev, err
}

func (c *client) teams(ctx context.Context, eventID string) ([]teamResponse, error) {
	var teams []teamResponse
	err := c.do(ctx, http.MethodGet, "/events/"+eventID+"/teams", nil, &teams)
	return teams, err
}

type criterionInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MaxScore int    `json:"max_score"`
}

func (c *client) criteria(ctx context.Context, eventID string) ([]criterionInfo, error) {
	var criteria []criterionInfo
	err := c.do(ctx, http.MethodGet, "/events/"+eventID+"/criteria", nil, &criteria)
	return criteria, err
}

func (c *client) setPhase(ctx context.Context, eventID, action string) error {
	return c.do(ctx, http.MethodPost, "/events/"+eventID+"/phase",
		map[string]string{"action": action}, nil)
}

func (c *client) setTeamStatus(ctx context.Context, eventID, teamID, status string) error {
	return c.do(ctx, http.MethodPatch, "/events/"+eventID+"/teams/"+teamID+"/status",
		map[string]string{"status": status}, nil)
}

func (c *client) submitScore(ctx context.Context, eventID string, req scoreRequest) (receiptResponse, error) {
	var receipt receiptResponse
	err := c.do(ctx, http.MethodPost, "/events/"+eventID+"/scores", req, &receipt)
	return receipt, err
}

func (c *client) leaderboard(ctx context.Context, eventID string) (leaderboardResponse, error) {
	var view leaderboardResponse
	err := c.do(ctx, http.MethodGet, "/events/"+eventID+"/leaderboard", nil, &view)
	return view, err
}
