package rest

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeBodyNone(t *testing.T) {
	body, err := encodeBody(&Request{BodyKind: BodyNone})
	require.NoError(t, err)
	require.Nil(t, body)
}

func TestEncodeJSONBodyReplays(t *testing.T) {
	body, err := encodeBody(&Request{
		BodyKind: BodyJSON,
		Body:     map[string]string{"content": "hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "application/json", body.contentType)

	for i := 0; i < 2; i++ {
		r, err := body.open()
		require.NoError(t, err)
		raw, err := io.ReadAll(r)
		require.NoError(t, err)
		require.JSONEq(t, `{"content":"hello"}`, string(raw))
		require.NoError(t, r.Close())
	}
}

func readParts(t *testing.T, body *encodedBody) map[string][]byte {
	t.Helper()
	r, err := body.open()
	require.NoError(t, err)
	defer r.Close() // nolint:errcheck

	_, params, err := mime.ParseMediaType(body.contentType)
	require.NoError(t, err)

	parts := map[string][]byte{}
	mr := multipart.NewReader(r, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		name := part.FormName()
		if fn := part.FileName(); fn != "" {
			name = name + ":" + fn
		}
		parts[name] = data
	}
	return parts
}

func TestEncodeMultipartBufferedParts(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xFF, 0xFE, 0x7F}
	body, err := encodeBody(&Request{
		BodyKind: BodyMultipart,
		Body:     map[string]string{"content": "with file"},
		Files: []File{
			{Name: "img.png", ContentType: "image/png", Data: payload},
			{Name: "notes.txt", Data: []byte("plain")},
		},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(body.contentType, "multipart/form-data"))

	parts := readParts(t, body)
	require.JSONEq(t, `{"content":"with file"}`, string(parts["payload_json"]))
	require.Equal(t, payload, parts["files[0]:img.png"])
	require.Equal(t, []byte("plain"), parts["files[1]:notes.txt"])
}

func TestEncodeMultipartBufferedReplays(t *testing.T) {
	body, err := encodeBody(&Request{
		BodyKind: BodyMultipart,
		Files:    []File{{Name: "a.bin", Data: []byte("abc")}},
	})
	require.NoError(t, err)

	first, err := body.open()
	require.NoError(t, err)
	rawFirst, err := io.ReadAll(first)
	require.NoError(t, err)

	second, err := body.open()
	require.NoError(t, err)
	rawSecond, err := io.ReadAll(second)
	require.NoError(t, err)

	require.Equal(t, rawFirst, rawSecond)
}

func TestEncodeMultipartStreamingIsSingleShot(t *testing.T) {
	body, err := encodeBody(&Request{
		BodyKind: BodyMultipart,
		Files:    []File{{Name: "big.bin", Reader: bytes.NewReader([]byte("streamed"))}},
	})
	require.NoError(t, err)

	parts := readParts(t, body)
	require.Equal(t, []byte("streamed"), parts["files[0]:big.bin"])

	_, err = body.open()
	require.ErrorIs(t, err, errSingleShot)
}

func TestEncodeMultipartRejectsBadAttachments(t *testing.T) {
	_, err := encodeBody(&Request{BodyKind: BodyMultipart})
	require.Error(t, err)

	_, err = encodeBody(&Request{
		BodyKind: BodyMultipart,
		Files:    []File{{Name: "", Data: []byte("x")}},
	})
	require.Error(t, err)

	_, err = encodeBody(&Request{
		BodyKind: BodyMultipart,
		Files:    []File{{Name: "both", Data: []byte("x"), Reader: bytes.NewReader(nil)}},
	})
	require.Error(t, err)

	_, err = encodeBody(&Request{
		BodyKind: BodyMultipart,
		Files:    []File{{Name: "empty"}},
	})
	require.Error(t, err)
}
