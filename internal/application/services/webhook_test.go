package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
	"github.com/futbolero/checkout-service/internal/infrastructure/webhook"
)

const (
	webhookTestSecret = "whsec_service_test"
	shopEmail         = "owner@futbolero.shop"
)

type webhookFixture struct {
	service *WebhookService
	orders  *MockOrderStore
	events  *MockEventStore
	sender  *MockSender
}

func newWebhookFixture() *webhookFixture {
	orders := NewMockOrderStore()
	events := NewMockEventStore()
	sender := NewMockSender()

	service := NewWebhookService(
		webhook.NewVerifier(webhookTestSecret, 5*time.Minute),
		events,
		orders,
		sender,
		shopEmail,
		slog.New(slog.DiscardHandler),
	)

	return &webhookFixture{service: service, orders: orders, events: events, sender: sender}
}

func checkoutCompletedBody(eventID, orderID, customerEmail string, amountTotal int64) []byte {
	return fmt.Appendf(nil,
		`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","amount_total":%d,"customer_email":%q,"metadata":{"orderId":%q}}}}`,
		eventID, amountTotal, customerEmail, orderID,
	)
}

func Test_HandleEvent_DispatchesNotificationOnce(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()

	order, err := domain.NewOrder("order_1", 4990, []domain.LineItem{
		{Name: "Maillot Ajax 1995", Size: "M", Quantity: 1, UnitPriceCents: 4990},
	}, domain.Contact{Email: "client@example.com"})
	require.NoError(t, err)
	require.NoError(t, f.orders.Put(ctx, order))

	body := checkoutCompletedBody("evt_123", "order_1", "client@example.com", 4990)
	header := webhook.Sign(body, webhookTestSecret)

	ack, err := f.service.HandleEvent(ctx, body, header)
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.False(t, ack.Idempotent)

	require.Eventually(t, func() bool {
		return len(f.sender.Messages()) == 1
	}, time.Second, 10*time.Millisecond)

	msg := f.sender.Messages()[0]
	assert.Equal(t, shopEmail, msg.To)
	assert.Contains(t, msg.Subject, "order_1")
	assert.Contains(t, msg.Subject, "49.90")
	assert.Contains(t, msg.Body, "49.90")
	assert.Contains(t, msg.Body, "Maillot Ajax 1995")
	assert.Contains(t, msg.Body, "client@example.com")
}

func Test_HandleEvent_DuplicateDelivery_SideEffectRunsOnce(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()

	body := checkoutCompletedBody("evt_123", "order_1", "client@example.com", 4990)
	header := webhook.Sign(body, webhookTestSecret)

	first, err := f.service.HandleEvent(ctx, body, header)
	require.NoError(t, err)
	assert.Equal(t, Ack{Received: true}, first)

	second, err := f.service.HandleEvent(ctx, body, header)
	require.NoError(t, err)
	assert.Equal(t, Ack{Received: true, Idempotent: true}, second)

	require.Eventually(t, func() bool {
		return len(f.sender.Messages()) == 1
	}, time.Second, 10*time.Millisecond)

	// Give a late duplicate dispatch a chance to show up before asserting.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.sender.Messages(), 1)
}

func Test_HandleEvent_MissingSignature_NoSideEffects(t *testing.T) {
	f := newWebhookFixture()

	marked := false
	f.events.MarkProcessedFn = func(ctx context.Context, eventID string) (bool, error) {
		marked = true
		return true, nil
	}

	body := checkoutCompletedBody("evt_123", "order_1", "client@example.com", 4990)

	ack, err := f.service.HandleEvent(context.Background(), body, "")
	require.Error(t, err)
	assert.False(t, ack.Received)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeSignatureInvalid, svcErr.Code)
	assert.Equal(t, 400, svcErr.HTTPStatus)

	assert.False(t, marked)
	assert.Zero(t, f.orders.GetCalls)
	assert.Empty(t, f.sender.Messages())
}

func Test_HandleEvent_WrongSignature_NoLookupNoNotification(t *testing.T) {
	f := newWebhookFixture()

	body := checkoutCompletedBody("evt_123", "order_1", "client@example.com", 4990)
	header := webhook.Sign(body, "whsec_wrong_secret")

	_, err := f.service.HandleEvent(context.Background(), body, header)
	require.Error(t, err)
	require.ErrorIs(t, err, webhook.ErrSignatureInvalid)

	assert.Zero(t, f.orders.GetCalls)
	assert.Empty(t, f.sender.Messages())
}

func Test_HandleEvent_VerifiesRawBytes_NotReserialization(t *testing.T) {
	f := newWebhookFixture()

	// Unusual key order and spacing: the service must verify the bytes as
	// received, never a re-encoded form.
	body := []byte(`{ "type": "checkout.session.completed", "data": {"object": {"id": "cs_raw", "amount_total": 1500, "metadata": {}}}, "id": "evt_raw" }`)
	header := webhook.Sign(body, webhookTestSecret)

	ack, err := f.service.HandleEvent(context.Background(), body, header)
	require.NoError(t, err)
	assert.True(t, ack.Received)
}

func Test_HandleEvent_UnknownEventType_AckNoSideEffect(t *testing.T) {
	f := newWebhookFixture()

	body := []byte(`{"id":"evt_other","type":"invoice.paid","data":{"object":{}}}`)
	header := webhook.Sign(body, webhookTestSecret)

	ack, err := f.service.HandleEvent(context.Background(), body, header)
	require.NoError(t, err)
	assert.Equal(t, Ack{Received: true}, ack)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.sender.Messages())
}

func Test_HandleEvent_MissingOrder_FallsBackToSessionPayload(t *testing.T) {
	f := newWebhookFixture()

	body := checkoutCompletedBody("evt_456", "order_gone", "client@example.com", 2500)
	header := webhook.Sign(body, webhookTestSecret)

	_, err := f.service.HandleEvent(context.Background(), body, header)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.sender.Messages()) == 1
	}, time.Second, 10*time.Millisecond)

	msg := f.sender.Messages()[0]
	assert.Contains(t, msg.Body, "25.00")
	assert.Contains(t, msg.Body, "Commande Futbolero")
}

func Test_HandleEvent_EventStoreFailure_Propagates(t *testing.T) {
	f := newWebhookFixture()
	f.events.MarkProcessedFn = func(ctx context.Context, eventID string) (bool, error) {
		return false, errors.New("connection refused")
	}

	body := checkoutCompletedBody("evt_789", "order_1", "", 1000)
	header := webhook.Sign(body, webhookTestSecret)

	_, err := f.service.HandleEvent(context.Background(), body, header)
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeDependency, svcErr.Code)
}

func Test_HandleEvent_SenderFailure_DoesNotAffectAck(t *testing.T) {
	f := newWebhookFixture()

	sent := make(chan struct{})
	f.sender.SendFn = func(ctx context.Context, msg application.Message) error {
		close(sent)
		return errors.New("smtp down")
	}

	body := checkoutCompletedBody("evt_smtp", "order_1", "client@example.com", 1000)
	header := webhook.Sign(body, webhookTestSecret)

	ack, err := f.service.HandleEvent(context.Background(), body, header)
	require.NoError(t, err)
	assert.True(t, ack.Received)

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("notification was never attempted")
	}
}

func Test_HandleEvent_MissingEventID_Rejected(t *testing.T) {
	f := newWebhookFixture()

	body := []byte(`{"type":"checkout.session.completed","data":{"object":{}}}`)
	header := webhook.Sign(body, webhookTestSecret)

	_, err := f.service.HandleEvent(context.Background(), body, header)
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
}
