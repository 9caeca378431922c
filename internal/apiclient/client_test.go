package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/contentdesk/internal/backendtest"
	"github.com/kingrea/contentdesk/internal/content"
	"github.com/kingrea/contentdesk/internal/session"
)

func newTestClient(t *testing.T) (*Client, *backendtest.Server, *session.Session) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	sess := session.New()
	return New(srv.URL, sess), srv, sess
}

func TestBearerAttachedOnlyWhenTokenPresent(t *testing.T) {
	client, srv, sess := newTestClient(t)
	ctx := context.Background()

	_, err := client.ScheduledQueue(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Login("abc123"))
	_, err = client.ScheduledQueue(ctx)
	require.NoError(t, err)

	calls := srv.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].Auth)
	assert.Equal(t, "Bearer abc123", calls[1].Auth)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	client := New(srv.URL, session.New())
	_, err := client.ListRequests(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 36)
}

func TestLoginReadsNestedTokenAndFallback(t *testing.T) {
	client, srv, _ := newTestClient(t)
	token, err := client.Login(context.Background(), "writer@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	srv.Token = ""
	_, err = client.Login(context.Background(), "writer@example.com", "secret")
	assert.ErrorIs(t, err, ErrNoToken)

	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"legacy","token_type":"bearer"}`))
	}))
	t.Cleanup(legacy.Close)
	token, err = New(legacy.URL, nil).Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "legacy", token)
}

func TestLoginFailureSurfacesAPIError(t *testing.T) {
	client, srv, _ := newTestClient(t)
	srv.LoginStatus = http.StatusUnauthorized
	_, err := client.Login(context.Background(), "writer@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}

func TestSubmitTopicValidatesBeforeCalling(t *testing.T) {
	client, srv, _ := newTestClient(t)
	_, err := client.SubmitTopic(context.Background(), content.NewRequest{ContentType: content.ContentTypeThread, Platform: content.PlatformX})
	assert.ErrorIs(t, err, content.ErrInvalidRequest)
	assert.Empty(t, srv.Calls())

	id, err := client.SubmitTopic(context.Background(), content.NewRequest{
		OriginalTopic: "  AI in fertility medicine ",
		ContentType:   content.ContentTypeThread,
		Platform:      content.PlatformX,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(srv.Calls()[0].Body), &body))
	assert.Equal(t, "AI in fertility medicine", body["original_topic"])
	assert.Equal(t, false, body["auto_post"])
}

func TestSubmitTopicMissingRequestIDIsShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)
	_, err := New(srv.URL, nil).SubmitTopic(context.Background(), content.NewRequest{
		OriginalTopic: "topic", ContentType: content.ContentTypeArticle, Platform: content.PlatformTypefully,
	})
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestListRequestsRequiresArray(t *testing.T) {
	payload := `{"data":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	client := New(srv.URL, nil)
	_, err := client.ListRequests(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedPayload)

	payload = `[{"id":3,"original_topic":"b","status":"content_generated","platform":"x","created_at":"2024-02-01T10:00:00"},{"id":2,"original_topic":"a","status":"pending","platform":"typefully","created_at":"2024-01-01T10:00:00"}]`
	requests, err := client.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, int64(3), requests[0].ID, "backend order is preserved")
	assert.Equal(t, 2024, requests[1].CreatedAt.Year())
}

func TestUsageStatsRequiresSuccessIndicator(t *testing.T) {
	payload := `{"data":{"api_quota_used_today":3,"api_quota_daily":50,"quota_reset_date":"2024-01-02"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	client := New(srv.URL, nil)
	_, err := client.UsageStats(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedPayload)

	payload = `{"success":true,"data":{"api_quota_used_today":3,"api_quota_daily":50,"quota_reset_date":"2024-01-02"}}`
	stats, err := client.UsageStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.APIQuotaUsedToday)
	assert.Equal(t, 50, stats.APIQuotaDaily)
}

func TestRequestDetailShape(t *testing.T) {
	client, srv, _ := newTestClient(t)
	contentID := int64(11)
	srv.Details[5] = content.Detail{
		Request: content.Request{ID: 5, OriginalTopic: "topic", Status: "content_generated"},
		Sources: []content.Source{{URL: "https://example.com", Title: "Example", RelevanceScore: 0.9}},
		Summary: &content.Summary{CombinedSummary: "sum", KeyPoints: []string{"one", "two"}},
		Content: &content.Item{ID: &contentID, GeneratedContent: "text", Status: "draft"},
	}
	detail, err := client.RequestDetail(context.Background(), 5)
	require.NoError(t, err)
	id, ok := detail.ContentID()
	require.True(t, ok)
	assert.Equal(t, int64(11), id)
	assert.Len(t, detail.Summary.KeyPoints, 2)

	_, err = client.RequestDetail(context.Background(), 99)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Request not found", apiErr.Message)
}

func TestRequestDetailMissingDataIsShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"request":{}}`))
	}))
	t.Cleanup(srv.Close)
	_, err := New(srv.URL, nil).RequestDetail(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestRunStageTreatsSuccessFalseAsFailure(t *testing.T) {
	client, srv, _ := newTestClient(t)
	srv.StageRejections[content.StageSummary] = "No verified sources with summaries."
	require.NoError(t, client.RunStage(context.Background(), 1, content.StageTopic))

	err := client.RunStage(context.Background(), 1, content.StageSummary)
	var rejected *StageRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, content.StageSummary, rejected.Stage)
	assert.Contains(t, err.Error(), "No verified sources")
	assert.Equal(t, []string{"POST /pipeline/1/topic", "POST /pipeline/1/summary"}, srv.Paths())
}

func TestScheduleRejectsZeroTimeWithoutCalling(t *testing.T) {
	client, srv, _ := newTestClient(t)
	err := client.Schedule(context.Background(), 4, time.Time{})
	assert.ErrorIs(t, err, ErrMissingSchedule)
	assert.Empty(t, srv.Calls())

	at := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, client.Schedule(context.Background(), 4, at))
	assert.JSONEq(t, `{"scheduled_for":"2030-06-01T09:00:00Z"}`, srv.Calls()[0].Body)
	assert.Equal(t, "PUT /content/queue/4/schedule", srv.Paths()[0])
}

func TestQueueDeleteIsSoft(t *testing.T) {
	client, srv, _ := newTestClient(t)
	srv.Queue = []content.QueueEntry{
		backendtest.Entry(7, "scheduled", ""),
		backendtest.Entry(8, "scheduled", ""),
	}
	ctx := context.Background()
	require.NoError(t, client.DeleteQueued(ctx, 7))
	entries, err := client.ScheduledQueue(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2, "soft delete keeps the record listed")
	assert.True(t, entries[0].Deleted())
	assert.False(t, entries[1].Deleted())
	assert.Equal(t, []string{"DELETE /content/queue/7", "GET /content/queue/scheduled"}, srv.Paths())
}

func TestScheduledQueueMissingDataIsShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(srv.Close)
	_, err := New(srv.URL, nil).ScheduledQueue(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestMutationFailuresAreAPIErrors(t *testing.T) {
	client, srv, _ := newTestClient(t)
	srv.PostStatus = http.StatusBadRequest
	srv.ApproveStatus = http.StatusInternalServerError
	err := client.PostQueued(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.ErrorAs(t, client.Approve(context.Background(), 1), &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestTimeoutSurfacesAsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	client := New(srv.URL, nil, WithTimeout(50*time.Millisecond))
	err := client.DeleteQueued(context.Background(), 1)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestUserConfigurationRoundTrip(t *testing.T) {
	client, srv, _ := newTestClient(t)
	saved, err := client.UpdateUserConfiguration(context.Background(), content.UserConfiguration{Persona: "clinician", Tone: "warm"})
	require.NoError(t, err)
	assert.Equal(t, "clinician", saved.Persona)
	loaded, err := client.UserConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "warm", loaded.Tone)
	assert.Equal(t, "clinician", srv.UserConfig.Persona)
}
