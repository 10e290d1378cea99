package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/leadtrack/internal/models"
)

func TestLeadNotifier_LeadCreated(t *testing.T) {
	ctx := context.Background()
	lead := &models.Lead{LeadID: uuid.Must(uuid.NewV7()), OrgID: uuid.Must(uuid.NewV7())}

	t.Run("sends the lead created mail", func(t *testing.T) {
		mailer := &recordingMailer{}
		notifier := NewLeadNotifier(mailer, validConfig())

		require.NoError(t, notifier.LeadCreated(ctx, lead))
		require.Equal(t, []Message{{
			From:    "leads@example.com",
			To:      []string{"sales@example.com"},
			Subject: "A lead has been created",
			Body:    "Go to the site to see the new lead",
		}}, mailer.sent)
	})

	t.Run("returns transport errors", func(t *testing.T) {
		boom := errors.New("transport down")
		notifier := NewLeadNotifier(&recordingMailer{err: boom}, validConfig())

		require.ErrorIs(t, notifier.LeadCreated(ctx, lead), boom)
	})
}
