package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futbolero/checkout-service/internal/application"
)

type flakySender struct {
	failures int
	calls    int
}

func (f *flakySender) Send(ctx context.Context, msg application.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp temporarily unavailable")
	}
	return nil
}

func TestRetrySender_SucceedsAfterTransientFailure(t *testing.T) {
	inner := &flakySender{failures: 2}
	sender := NewRetrySender(inner, time.Millisecond, 3)

	err := sender.Send(context.Background(), application.Message{To: "shop@example.com"})

	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrySender_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakySender{failures: 10}
	sender := NewRetrySender(inner, time.Millisecond, 3)

	err := sender.Send(context.Background(), application.Message{To: "shop@example.com"})

	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrySender_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakySender{}
	sender := NewRetrySender(inner, time.Millisecond, 3)

	err := sender.Send(ctx, application.Message{To: "shop@example.com"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inner.calls)
}
