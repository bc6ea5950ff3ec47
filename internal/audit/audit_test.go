package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/audit"
	"onboard/internal/audit/store"
	"onboard/internal/events"
	"onboard/pkg/requestcontext"
	"onboard/pkg/testutil"
)

var at = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestFromEvent(t *testing.T) {
	cases := []struct {
		name     string
		event    events.Event
		action   string
		subject  string
		decision string
		reason   string
	}{
		{"identity", events.ApplicationVerified{ApplicationID: "app-1", FamilyName: "Virtanen", At: at},
			audit.ActionApplicationVerified, "identity", "verified", ""},
		{"qualification", events.QualificationVerified{ApplicationID: "app-1", CredentialType: "DIPLOMA", At: at},
			audit.ActionQualificationVerified, "DIPLOMA", "verified", ""},
		{"signed", events.DocumentSigned{ApplicationID: "app-1", DocumentID: "doc-1", At: at},
			audit.ActionDocumentSigned, "doc-1", "signed", ""},
		{"signing failed", events.DocumentSigningFailed{ApplicationID: "app-1", DocumentID: "doc-1", ErrorCode: "nonce_mismatch", At: at},
			audit.ActionDocumentSigningFailed, "doc-1", "failed", "nonce_mismatch"},
		{"offer", events.CredentialOfferCreated{ApplicationID: "app-1", CredentialType: "EMPLOYEE", Superseded: 2, At: at},
			audit.ActionCredentialOfferCreated, "EMPLOYEE", "offered", "superseded 2 live offer(s)"},
		{"claimed", events.CredentialClaimed{ApplicationID: "app-1", CredentialType: "EMPLOYEE", At: at},
			audit.ActionCredentialClaimed, "EMPLOYEE", "claimed", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := audit.FromEvent(tc.event)
			assert.Equal(t, "app-1", entry.ApplicationID)
			assert.Equal(t, tc.action, entry.Action)
			assert.Equal(t, tc.subject, entry.Subject)
			assert.Equal(t, tc.decision, entry.Decision)
			assert.Equal(t, tc.reason, entry.Reason)
			assert.Equal(t, at, entry.OccurredAt)
		})
	}

	entry := audit.FromEvent(events.ApplicationVerified{ApplicationID: "app-1", FamilyName: "Virtanen", GivenName: "Aino"})
	assert.NotContains(t, entry.Subject+entry.Reason, "Virtanen", "claim values stay out of the trail")
}

func TestPublisher(t *testing.T) {
	pub := audit.NewPublisher(store.NewInMemory())
	ctx := context.Background()
	require.NoError(t, pub.Emit(ctx, audit.Entry{ApplicationID: "app-1", Action: "second", OccurredAt: at.Add(time.Minute)}))
	require.NoError(t, pub.Emit(ctx, audit.Entry{ApplicationID: "app-1", Action: "first", OccurredAt: at}))
	require.NoError(t, pub.Emit(ctx, audit.Entry{ApplicationID: "app-2", Action: "other"}))

	entries, err := pub.List(ctx, "app-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Action)
	assert.NotEmpty(t, entries[0].ID)

	empty, err := pub.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSubscriberAndWorker(t *testing.T) {
	inbox := make(chan audit.Entry, 8)
	pub := audit.NewPublisher(store.NewInMemory())
	dispatcher := events.NewDispatcher(events.WithLogger(testutil.DiscardLogger()))
	dispatcher.SubscribeAll(audit.NewSubscriber(inbox).Handle)

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	require.NoError(t, dispatcher.Dispatch(ctx,
		events.DocumentSigned{ApplicationID: "app-1", DocumentID: "doc-1", At: at},
		events.CredentialClaimed{ApplicationID: "app-1", CredentialType: "EMPLOYEE", At: at.Add(time.Second)},
	))

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- audit.NewWorker(pub, inbox, testutil.DiscardLogger()).Run(runCtx) }()

	require.Eventually(t, func() bool {
		entries, err := pub.List(context.Background(), "app-1")
		return err == nil && len(entries) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))

	entries, err := pub.List(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "req-42", entries[0].RequestID)
	assert.Equal(t, audit.ActionCredentialClaimed, entries[1].Action)
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	inbox := make(chan audit.Entry, 4)
	pub := audit.NewPublisher(store.NewInMemory())
	inbox <- audit.Entry{ApplicationID: "app-1", Action: "a", OccurredAt: at}
	inbox <- audit.Entry{ApplicationID: "app-1", Action: "b", OccurredAt: at.Add(time.Second)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := audit.NewWorker(pub, inbox, testutil.DiscardLogger()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := pub.List(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
