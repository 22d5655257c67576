package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/invoicestack/config"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
)

func newTestProvider(t *testing.T, handler http.Handler) *gmailProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGmailProvider(&config.GmailConfig{BaseURL: server.URL}).(*gmailProvider)
}

func writeJSON(t *testing.T, w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestSearchMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, "has:attachment after:2024/01/01", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		writeJSON(t, w, map[string]interface{}{
			"messages": []map[string]string{{"id": "m1", "threadId": "t1"}, {"id": "m2", "threadId": "t2"}},
		})
	})
	provider := newTestProvider(t, mux)

	ids, err := provider.SearchMessages(context.Background(), "access-1", "has:attachment after:2024/01/01", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}

func TestSearchMessages_ProviderError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]interface{}{"error": map[string]interface{}{"code": 401, "message": "invalid credentials"}})
	})
	provider := newTestProvider(t, mux)

	_, err := provider.SearchMessages(context.Background(), "expired", "has:attachment", 50)
	assert.ErrorIs(t, err, invoicestack_errors.ErrProviderFetchFailed)
}

func TestGetMessage_MapsNestedParts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		writeJSON(t, w, map[string]interface{}{
			"id":           "m1",
			"threadId":     "t1",
			"internalDate": "1700000000000",
			"payload": map[string]interface{}{
				"mimeType": "multipart/mixed",
				"headers": []map[string]string{
					{"name": "Subject", "value": "Your invoice"},
					{"name": "From", "value": "billing@supplier.com"},
				},
				"parts": []map[string]interface{}{
					{"partId": "0", "mimeType": "text/plain", "body": map[string]interface{}{"size": 10, "data": "aGVsbG8"}},
					{"partId": "1", "mimeType": "application/pdf", "filename": "invoice.pdf", "body": map[string]interface{}{"attachmentId": "att-1", "size": 2048}},
				},
			},
		})
	})
	provider := newTestProvider(t, mux)

	message, err := provider.GetMessage(context.Background(), "access-1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", message.Id)
	assert.Equal(t, "Your invoice", message.Subject)
	assert.Equal(t, "billing@supplier.com", message.From)
	assert.Equal(t, int64(1700000000), message.Date.Unix())
	require.Len(t, message.Parts, 1)
	root := message.Parts[0]
	require.Len(t, root.Parts, 2)
	assert.Equal(t, "invoice.pdf", root.Parts[1].Filename)
	assert.Equal(t, "att-1", root.Parts[1].AttachmentId)
	assert.Equal(t, int64(2048), root.Parts[1].Size)
	assert.Empty(t, root.Parts[0].AttachmentId)
}

func TestGetAttachment_DecodesBase64Url(t *testing.T) {
	payload := []byte("%PDF-1.4 \xff\xfe binary")
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/m1/attachments/att-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"attachmentId": "att-1",
			"size":         len(payload),
			"data":         base64.RawURLEncoding.EncodeToString(payload),
		})
	})
	provider := newTestProvider(t, mux)

	data, err := provider.GetAttachment(context.Background(), "access-1", "m1", "att-1")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestGetProfileAddress(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"emailAddress": "jane@example.com", "messagesTotal": 10})
	})
	provider := newTestProvider(t, mux)

	address, err := provider.GetProfileAddress(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", address)
}

func TestDecodeAttachmentData(t *testing.T) {
	payload := []byte{0xfb, 0xff, 0x01}

	decoded, err := DecodeAttachmentData(base64.URLEncoding.EncodeToString(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)

	decoded, err = DecodeAttachmentData(base64.RawURLEncoding.EncodeToString(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)

	_, err = DecodeAttachmentData("not base64!")
	assert.Error(t, err)
}
