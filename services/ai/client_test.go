package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/dto"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *classifierClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClassifierClient(&config.ClassifierConfig{
		URL:               server.URL + "/",
		APIKey:            "classifier-key",
		Timeout:           5 * time.Second,
		RequestsPerMinute: 6000,
	}).(*classifierClient)
}

func TestClassifierClient_Classify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/classify", r.URL.Path)
		assert.Equal(t, "classifier-key", r.Header.Get("X-API-KEY"))

		var request dto.ClassificationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "JVBERg==", request.Payload)
		assert.Equal(t, "application/pdf", request.MimeType)
		assert.Contains(t, request.Policy.Reject, "bank statement")

		_, _ = w.Write([]byte("```json\n{\"isInvoice\": true, \"documentType\": \"invoice\", \"confidence\": 88}\n```"))
	})

	verdict, err := client.Classify(context.Background(), dto.ClassificationRequest{
		Payload:  "JVBERg==",
		MimeType: "application/pdf",
		Filename: "invoice.pdf",
		Policy:   DefaultPolicy(),
	})
	require.NoError(t, err)
	assert.True(t, verdict.IsInvoice)
	assert.Equal(t, 88, verdict.Confidence)
}

func TestClassifierClient_UnparsableOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("I could not read the document"))
	})

	_, err := client.Classify(context.Background(), dto.ClassificationRequest{Payload: "eA=="})
	assert.ErrorIs(t, err, invoicestack_errors.ErrInvalidClassifierResponse)
}

func TestClassifierClient_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	})

	_, err := client.Classify(context.Background(), dto.ClassificationRequest{Payload: "eA=="})
	require.Error(t, err)
	assert.NotErrorIs(t, err, invoicestack_errors.ErrInvalidClassifierResponse)
	assert.Contains(t, err.Error(), "503")
}
