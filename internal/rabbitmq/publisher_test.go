package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishMessage(t *testing.T) {
	ch := new(MockChannel)
	ch.On("Publish", "ex", "rk", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
		return p.ContentType == "application/json" && p.DeliveryMode == amqp.Persistent && string(p.Body) == `{"ok":true}`
	})).Return(nil).Once()

	require.NoError(t, PublishMessage(ch, "ex", "rk", map[string]bool{"ok": true}))
	ch.AssertExpectations(t)
}

func TestPublishMessage_MarshalError(t *testing.T) {
	err := PublishMessage(new(MockChannel), "", "q", struct {
		Ch chan int `json:"ch"`
	}{Ch: make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
}

func TestPublishMessage_ChannelError(t *testing.T) {
	ch := new(MockChannel)
	ch.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).Return(errors.New("closed")).Once()

	assert.Error(t, PublishMessage(ch, "ex", "rk", 1))
}

func TestNotifier_NotifyPause(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	n := models.PauseNotification{
		MessageID:  "m1",
		Event:      models.EventPauseResumed,
		UserID:     "u1",
		LevelID:    models.LevelA1,
		Trigger:    "auto",
		ExpiresAt:  now,
		OccurredAt: now,
	}

	ch := new(MockChannel)
	ch.On("Publish", NotificationsExchange, models.EventPauseResumed, false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
		var got models.PauseNotification
		return json.Unmarshal(p.Body, &got) == nil && got.UserID == "u1" && got.Trigger == "auto"
	})).Return(nil).Once()

	require.NoError(t, NewNotifier(ch).NotifyPause(context.Background(), n))
	ch.AssertExpectations(t)
}

func TestNotifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := new(MockChannel)
	err := NewNotifier(ch).NotifyPause(ctx, models.PauseNotification{Event: models.EventPauseStarted})
	assert.ErrorIs(t, err, context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()
	require.Len(t, queues, 2)

	seen := map[string]bool{}
	for _, q := range queues {
		assert.Equal(t, NotificationsExchange, q.Exchange)
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
	}
	assert.Equal(t, models.EventPauseStarted, queues[0].RoutingKey)
	assert.Equal(t, models.EventPauseResumed, queues[1].RoutingKey)
}
