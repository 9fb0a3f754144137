package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/events"
)

func TestNotifySendsOrderConfirmation(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := &EmailNotifier{Sender: outbox, Logger: zerolog.Nop()}

	err := notifier.Notify(context.Background(), db.DomainEvent{
		Topic:   events.TopicOrderCreated,
		Payload: []byte(`{"order_id":"ord-1","email":"ada@example.com","total":4200,"currency":"GBP"}`),
	})
	require.NoError(t, err)
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "ada@example.com", outbox.Outbox[0].To)
	require.Contains(t, outbox.Outbox[0].Subject, "ord-1")
	require.Contains(t, outbox.Outbox[0].HTML, "£42.00")
}

func TestNotifyIgnoresOtherTopics(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := &EmailNotifier{Sender: outbox, Logger: zerolog.Nop()}

	err := notifier.Notify(context.Background(), db.DomainEvent{
		Topic:   events.TopicToyDeleted,
		Payload: []byte(`{"toy_id":"t-1"}`),
	})
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}

func TestNotifySkipsMissingEmail(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := &EmailNotifier{Sender: outbox, Logger: zerolog.Nop()}

	err := notifier.Notify(context.Background(), db.DomainEvent{
		Topic:   events.TopicOrderCreated,
		Payload: []byte(`{"order_id":"ord-2","total":100,"currency":"GBP"}`),
	})
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}
