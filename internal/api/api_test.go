package api

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accordhq/accord/internal/rest"
)

type capturedRequest struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Body        []byte
}

// newCapturingClient records each request and answers with the given JSON.
func newCapturingClient(t *testing.T, status int, reply string) (*Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Query = r.URL.RawQuery
		captured.ContentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured.Body = body

		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "4")
		w.Header().Set("X-RateLimit-Reset-After", "1")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	rc := rest.New("token")
	rc.BaseURL = srv.URL
	rc.HTTP = srv.Client()
	rc.Retry = rest.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	return NewClient(rc), captured
}

func TestCreateMessageJSON(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusOK, `{"id":"m1","content":"hello"}`)

	msg, err := client.CreateMessage(context.Background(), "111", CreateMessageParams{Content: "hello"}, nil)
	require.NoError(t, err)
	require.Equal(t, "m1", msg.ID)

	require.Equal(t, http.MethodPost, captured.Method)
	require.Equal(t, "/channels/111/messages", captured.Path)
	require.Equal(t, "application/json", captured.ContentType)
	require.JSONEq(t, `{"content":"hello"}`, string(captured.Body))
}

func TestCreateMessageWithFilesIsMultipart(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusOK, `{"id":"m1"}`)

	payload := []byte{0x89, 0x50, 0x4E, 0x47}
	_, err := client.CreateMessage(context.Background(), "111",
		CreateMessageParams{Content: "with file"},
		[]rest.File{{Name: "img.png", ContentType: "image/png", Data: payload}})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(captured.ContentType, "multipart/form-data"))

	_, params, err := mime.ParseMediaType(captured.ContentType)
	require.NoError(t, err)
	mr := multipart.NewReader(strings.NewReader(string(captured.Body)), params["boundary"])

	metaPart, err := mr.NextPart()
	require.NoError(t, err)
	require.Equal(t, "payload_json", metaPart.FormName())
	meta, err := io.ReadAll(metaPart)
	require.NoError(t, err)
	require.JSONEq(t, `{"content":"with file"}`, string(meta))

	filePart, err := mr.NextPart()
	require.NoError(t, err)
	require.Equal(t, "files[0]", filePart.FormName())
	require.Equal(t, "img.png", filePart.FileName())
	data, err := io.ReadAll(filePart)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestGetMessagesQueryParams(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusOK, `[{"id":"m1"},{"id":"m2"}]`)

	msgs, err := client.GetMessages(context.Background(), "111", 25, "900", "")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	require.Equal(t, http.MethodGet, captured.Method)
	require.Equal(t, "/channels/111/messages", captured.Path)
	require.Contains(t, captured.Query, "limit=25")
	require.Contains(t, captured.Query, "before=900")
	require.NotContains(t, captured.Query, "after")
}

func TestDeleteMessagePath(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusNoContent, ``)

	require.NoError(t, client.DeleteMessage(context.Background(), "111", "222"))
	require.Equal(t, http.MethodDelete, captured.Method)
	require.Equal(t, "/channels/111/messages/222", captured.Path)
}

func TestModifyChannelOmitsUnsetFields(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusOK, `{"id":"111","name":"renamed"}`)

	name := "renamed"
	ch, err := client.ModifyChannel(context.Background(), "111", ModifyChannelParams{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "renamed", ch.Name)

	require.Equal(t, http.MethodPatch, captured.Method)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(captured.Body, &body))
	require.Contains(t, body, "name")
	require.NotContains(t, body, "topic")
	require.NotContains(t, body, "nsfw")
}

func TestExecuteWebhookWaitsForMessage(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusOK, `{"id":"m9"}`)

	msg, err := client.ExecuteWebhook(context.Background(), "42", "tok", ExecuteWebhookParams{Content: "hi"}, nil)
	require.NoError(t, err)
	require.Equal(t, "m9", msg.ID)

	require.Equal(t, "/webhooks/42/tok", captured.Path)
	require.Contains(t, captured.Query, "wait=true")
}

func TestCreateInteractionResponsePath(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusNoContent, ``)

	err := client.CreateInteractionResponse(context.Background(), "inter-1", "tok", InteractionResponse{
		Type: InteractionResponseMessage,
		Data: &InteractionResponseData{Content: "pong!"},
	})
	require.NoError(t, err)

	require.Equal(t, "/interactions/inter-1/tok/callback", captured.Path)
	require.JSONEq(t, `{"type":4,"data":{"content":"pong!"}}`, string(captured.Body))
}

func TestEditOriginalResponsePath(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusOK, `{"id":"m1"}`)

	_, err := client.EditOriginalResponse(context.Background(), "app-1", "tok", CreateMessageParams{Content: "edited"})
	require.NoError(t, err)
	require.Equal(t, "/webhooks/app-1/tok/messages/@original", captured.Path)
}

func TestGetAuditLogQuery(t *testing.T) {
	client, captured := newCapturingClient(t, http.StatusOK, `{"entries":[]}`)

	_, err := client.GetAuditLog(context.Background(), "g1", "u1", 0, 10)
	require.NoError(t, err)

	require.Equal(t, "/guilds/g1/audit-logs", captured.Path)
	require.Contains(t, captured.Query, "user_id=u1")
	require.Contains(t, captured.Query, "limit=10")
}

func TestAPIErrorPropagates(t *testing.T) {
	client, _ := newCapturingClient(t, http.StatusForbidden, `{"code":50001,"message":"Missing Access"}`)

	_, err := client.GetChannel(context.Background(), "111")
	var ae *rest.APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, 50001, ae.Code)
}

func TestDecodeFailureIsWrapped(t *testing.T) {
	client, _ := newCapturingClient(t, http.StatusOK, `not json`)

	_, err := client.GetChannel(context.Background(), "111")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestNilClientRejected(t *testing.T) {
	var c *Client
	err := c.request(context.Background(), rest.NewRequest(http.MethodGet, "/users/@me", nil), nil)
	require.Error(t, err)
}
