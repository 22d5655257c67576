package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/invoicestack/config"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *googleTokenExchanger {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGoogleTokenExchanger(&config.GoogleOAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://app.example.com/callback",
		TokenURL:     server.URL + "/token",
	}).(*googleTokenExchanger)
}

func TestGoogleTokenExchanger_Refresh(t *testing.T) {
	exchanger := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`))
	})

	before := time.Now()
	token, err := exchanger.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", token.AccessToken)
	assert.True(t, token.Expiry.After(before.Add(50*time.Minute)))
}

func TestGoogleTokenExchanger_RefreshRejected(t *testing.T) {
	exchanger := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := exchanger.Refresh(context.Background(), "revoked")
	assert.Error(t, err)
}

func TestGoogleTokenExchanger_RefreshWithoutToken(t *testing.T) {
	exchanger := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("token endpoint must not be called")
	})

	_, err := exchanger.Refresh(context.Background(), "")
	assert.Error(t, err)
}

func TestGoogleTokenExchanger_Exchange(t *testing.T) {
	exchanger := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "code-1", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`))
	})

	token, err := exchanger.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", token.AccessToken)
	assert.Equal(t, "refresh-1", token.RefreshToken)
}
