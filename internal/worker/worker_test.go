package worker

import (
	"context"
	"encoding/json"
	"testing"

	"sweetshop/internal/broker"
	"sweetshop/internal/models"
	"sweetshop/internal/util"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	messages []kafka.Message
	closed   bool
}

func (f *fakeSource) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for _, msg := range f.messages {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func TestReceiptWorkerLogsCheckouts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	util.SetLogger(zap.New(core))

	event := models.CartCheckedOutEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-9", EventType: models.EventTypeCartCheckedOut, SessionID: "s1"},
		Username:  "usuario2",
		Lines: []models.CartLine{
			{ItemID: 1, Name: "Dulce de leche", UnitPrice: 1000, Quantity: 2},
			{ItemID: 2, Name: "Alfajor", UnitPrice: 500, Quantity: 1},
		},
		Total: 2500,
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)

	src := &fakeSource{messages: []kafka.Message{{Value: value}}}
	w := NewReceiptWorker(src)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	assert.True(t, src.closed)

	receipts := logs.FilterMessage("Receipt").All()
	require.Len(t, receipts, 1)

	fields := receipts[0].ContextMap()
	assert.Equal(t, int64(2500), fields["total"])
	assert.Equal(t, int64(3), fields["units"])
	assert.Equal(t, "usuario2", fields["username"])
}
