package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"acquisition-pdf-pipeline/internal/domain"
)

func chatSubmission() domain.Submission {
	return domain.Submission{
		ID:       42,
		FormType: domain.FormTypeCIM,
		Fields: map[string]string{
			domain.FieldFullName:      "Jane Doe",
			domain.FieldEmail:         "jane@example.com",
			domain.FieldIndustry:      "Manufacturing",
			domain.FieldPurchasePrice: "1250000",
		},
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestNotifyPostsBlocksToWebhook(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		body = string(payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewChatChannel(ChatConfig{
		WebhookURL: srv.URL,
		Channel:    "#business-submissions",
		Timeout:    5 * time.Second,
		Enabled:    true,
	})

	err := ch.Notify(context.Background(), chatSubmission(),
		"cim_overview_Jane_Doe_42.pdf", "https://blob/submissions/42/report.pdf")
	require.NoError(t, err)

	require.Contains(t, body, "New CIM Questions Submission Processed")
	require.Contains(t, body, "Jane Doe")
	require.Contains(t, body, "$1,250,000")
	require.Contains(t, body, "cim_overview_Jane_Doe_42.pdf")
	require.Contains(t, body, "https://blob/submissions/42/report.pdf")
	require.Contains(t, body, "#business-submissions")
}

func TestNotifyWithoutStorageLink(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		body = string(payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewChatChannel(ChatConfig{WebhookURL: srv.URL, Timeout: 5 * time.Second, Enabled: true})

	err := ch.Notify(context.Background(), chatSubmission(), "report.pdf", "")
	require.NoError(t, err)
	require.Contains(t, body, "Not available")
	require.False(t, strings.Contains(body, "View PDF"))
}

func TestNotifyWrapsWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	ch := NewChatChannel(ChatConfig{WebhookURL: srv.URL, Timeout: 5 * time.Second, Enabled: true})

	err := ch.Notify(context.Background(), chatSubmission(), "report.pdf", "")
	var nErr *domain.NotificationError
	require.True(t, errors.As(err, &nErr))
	require.Equal(t, "post", nErr.Op)
}
