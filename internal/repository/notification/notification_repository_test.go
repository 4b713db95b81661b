package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail(t *testing.T) {
	var got payloadSendEmail
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3.1/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := NewMailjetRepository(MailjetConfig{
		MailjetBaseURL:           srv.URL,
		MailjetBasicAuthUsername: "user",
		MailjetBasicAuthPassword: "pass",
		MailjetSenderEmail:       "shop@example.com",
		MailjetSenderName:        "Abaya Store",
	})

	require.NoError(t, repo.SendEmail("Aisha", "aisha@example.com", "Hello", "<b>hi</b>"))
	assert.Equal(t, "Basic dXNlcjpwYXNz", auth)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "aisha@example.com", got.Messages[0].To[0].Email)
	assert.Equal(t, "Hello", got.Messages[0].Subject)
}

func TestSendEmailRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	repo := NewMailjetRepository(MailjetConfig{MailjetBaseURL: srv.URL, MailjetBasicAuthUsername: "u"})
	assert.Error(t, repo.SendEmail("A", "a@b.com", "s", "m"))
}

func TestSendEmailUnconfigured(t *testing.T) {
	repo := NewMailjetRepository(MailjetConfig{MailjetBaseURL: "http://127.0.0.1:1"})
	assert.NoError(t, repo.SendEmail("A", "a@b.com", "s", "m"))
}
