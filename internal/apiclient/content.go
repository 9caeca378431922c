package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kingrea/contentdesk/internal/content"
)

// StageRejectedError reports a pipeline stage that answered 200 with
// success=false.
type StageRejectedError struct {
	Stage   content.Stage
	Message string
}

func (e *StageRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s stage reported failure", e.Stage)
	}
	return fmt.Sprintf("%s stage reported failure: %s", e.Stage, e.Message)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"email": strings.TrimSpace(email), "password": password}
	var resp struct {
		Data *struct {
			Token string `json:"token"`
		} `json:"data"`
		AccessToken string `json:"access_token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return "", err
	}
	token := ""
	if resp.Data != nil {
		token = strings.TrimSpace(resp.Data.Token)
	}
	if token == "" {
		token = strings.TrimSpace(resp.AccessToken)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SubmitTopic creates a content request and returns its identifier.
func (c *Client) SubmitTopic(ctx context.Context, req content.NewRequest) (int64, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return 0, err
	}
	var resp struct {
		RequestID *int64 `json:"request_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/content/requests", req, &resp); err != nil {
		return 0, err
	}
	if resp.RequestID == nil {
		return 0, shapeError("submit topic", "request_id missing")
	}
	return *resp.RequestID, nil
}

// ListRequests returns the caller's requests in backend order.
func (c *Client) ListRequests(ctx context.Context) ([]content.Request, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/content/requests", nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, shapeError("list requests", "expected a JSON array")
	}
	var requests []content.Request
	if err := json.Unmarshal(trimmed, &requests); err != nil {
		return nil, shapeError("list requests", err.Error())
	}
	return requests, nil
}

// RequestDetail loads the composite view of one request.
func (c *Client) RequestDetail(ctx context.Context, requestID int64) (content.Detail, error) {
	var resp struct {
		Data *struct {
			Request *content.Request `json:"request"`
			Sources []content.Source `json:"sources"`
			Summary *content.Summary `json:"summary"`
			Content *content.Item    `json:"content"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/content/requests/%d", requestID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return content.Detail{}, err
	}
	if resp.Data == nil {
		return content.Detail{}, shapeError("request detail", "data missing")
	}
	if resp.Data.Request == nil {
		return content.Detail{}, shapeError("request detail", "data.request missing")
	}
	return content.Detail{
		Request: *resp.Data.Request,
		Sources: resp.Data.Sources,
		Summary: resp.Data.Summary,
		Content: resp.Data.Content,
	}, nil
}

// RunStage executes one pipeline stage for a request. The call returning is
// taken as proof that the stage finished server-side.
func (c *Client) RunStage(ctx context.Context, requestID int64, stage content.Stage) error {
	var resp struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	path := fmt.Sprintf("/pipeline/%d/%s", requestID, stage)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return err
	}
	if resp.Success != nil && !*resp.Success {
		return &StageRejectedError{Stage: stage, Message: strings.TrimSpace(resp.Error)}
	}
	return nil
}

// Approve moves a draft content item to approved.
func (c *Client) Approve(ctx context.Context, contentID int64) error {
	path := fmt.Sprintf("/content/queue/%d/approve", contentID)
	return c.doJSON(ctx, http.MethodPut, path, nil, nil)
}

// Schedule queues a content item for posting at the given time.
func (c *Client) Schedule(ctx context.Context, contentID int64, at time.Time) error {
	if at.IsZero() {
		return ErrMissingSchedule
	}
	payload := map[string]string{"scheduled_for": at.UTC().Format(time.RFC3339)}
	path := fmt.Sprintf("/content/queue/%d/schedule", contentID)
	return c.doJSON(ctx, http.MethodPut, path, payload, nil)
}

// ScheduledQueue returns every queue entry, soft-deleted ones included.
func (c *Client) ScheduledQueue(ctx context.Context) ([]content.QueueEntry, error) {
	var resp map[string]json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/content/queue/scheduled", nil, &resp); err != nil {
		return nil, err
	}
	raw, ok := resp["data"]
	if !ok {
		return nil, shapeError("scheduled queue", "data missing")
	}
	var entries []content.QueueEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, shapeError("scheduled queue", err.Error())
	}
	if entries == nil {
		entries = []content.QueueEntry{}
	}
	return entries, nil
}

// DeleteQueued soft-deletes a queue entry. The record stays listed.
func (c *Client) DeleteQueued(ctx context.Context, entryID int64) error {
	path := fmt.Sprintf("/content/queue/%d", entryID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// PostQueued dispatches a queue entry immediately.
func (c *Client) PostQueued(ctx context.Context, entryID int64) error {
	path := fmt.Sprintf("/content/queue/%d/post", entryID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}
