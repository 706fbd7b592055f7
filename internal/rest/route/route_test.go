package route

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveSubstitutesMajorParams(t *testing.T) {
	r := NewResolver(nil)

	key, err := r.Resolve("GET", "/channels/{channel.id}/messages/{message.id}", Params{
		"channel.id": "111",
		"message.id": "222",
	})
	require.NoError(t, err)
	require.Equal(t, "GET /channels/111/messages/{message.id}", key.Value)
	require.Equal(t, "111", key.Major)
}

func TestResolveSharesBucketAcrossMinorParams(t *testing.T) {
	r := NewResolver(nil)

	a, err := r.Resolve("DELETE", "/channels/{channel.id}/messages/{message.id}", Params{
		"channel.id": "111",
		"message.id": "1",
	})
	require.NoError(t, err)

	b, err := r.Resolve("DELETE", "/channels/{channel.id}/messages/{message.id}", Params{
		"channel.id": "111",
		"message.id": "2",
	})
	require.NoError(t, err)

	require.Equal(t, a.Value, b.Value)
}

func TestResolveSeparatesBucketsByMajorParam(t *testing.T) {
	r := NewResolver(nil)

	a, err := r.Resolve("POST", "/channels/{channel.id}/messages", Params{"channel.id": "111"})
	require.NoError(t, err)
	b, err := r.Resolve("POST", "/channels/{channel.id}/messages", Params{"channel.id": "999"})
	require.NoError(t, err)

	require.NotEqual(t, a.Value, b.Value)
}

func TestResolveSeparatesBucketsByMethod(t *testing.T) {
	r := NewResolver(nil)
	params := Params{"channel.id": "111", "message.id": "5"}

	get, err := r.Resolve("GET", "/channels/{channel.id}/messages/{message.id}", params)
	require.NoError(t, err)
	del, err := r.Resolve("DELETE", "/channels/{channel.id}/messages/{message.id}", params)
	require.NoError(t, err)

	require.NotEqual(t, get.Value, del.Value)
}

func TestResolveRequiresMajorParams(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve("GET", "/channels/{channel.id}", Params{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "channel.id")
}

func TestResolveRejectsInvalidTemplate(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve("GET", "channels/111", nil)
	require.Error(t, err)

	_, err = r.Resolve("", "/channels/{channel.id}", Params{"channel.id": "1"})
	require.Error(t, err)
}

func TestResolveWebhookTokenIsMajor(t *testing.T) {
	r := NewResolver(nil)

	a, err := r.Resolve("POST", "/webhooks/{webhook.id}/{webhook.token}", Params{
		"webhook.id":    "42",
		"webhook.token": "tok-a",
	})
	require.NoError(t, err)
	b, err := r.Resolve("POST", "/webhooks/{webhook.id}/{webhook.token}", Params{
		"webhook.id":    "42",
		"webhook.token": "tok-b",
	})
	require.NoError(t, err)

	require.NotEqual(t, a.Value, b.Value)
	require.Equal(t, "42/tok-a", a.Major)
}

func TestExpandEscapesValues(t *testing.T) {
	path, err := Expand("/channels/{channel.id}/messages/{message.id}", Params{
		"channel.id": "111",
		"message.id": "a b/c",
	})
	require.NoError(t, err)
	require.Equal(t, "/channels/111/messages/a%20b%2Fc", path)
}

func TestExpandRequiresEveryParam(t *testing.T) {
	_, err := Expand("/channels/{channel.id}", Params{})
	require.Error(t, err)
}
