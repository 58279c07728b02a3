package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	domain "jobscout/internal/domain/notification"
)

type fakeQueue struct {
	pushed     map[string][][]byte
	published  map[string][][]byte
	pushErr    error
	publishErr error
}

func (q *fakeQueue) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if q.pushErr != nil {
		cmd.SetErr(q.pushErr)
		return cmd
	}
	if q.pushed == nil {
		q.pushed = map[string][][]byte{}
	}
	for _, v := range values {
		q.pushed[key] = append(q.pushed[key], v.([]byte))
	}
	cmd.SetVal(int64(len(q.pushed[key])))
	return cmd
}

func (q *fakeQueue) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if q.publishErr != nil {
		cmd.SetErr(q.publishErr)
		return cmd
	}
	if q.published == nil {
		q.published = map[string][][]byte{}
	}
	q.published[channel] = append(q.published[channel], message.([]byte))
	cmd.SetVal(1)
	return cmd
}

type fakeRealtime struct {
	got []domain.Payload
}

func (r *fakeRealtime) Publish(p domain.Payload) bool {
	r.got = append(r.got, p)
	return true
}

func TestRedisNotifier_Notify(t *testing.T) {
	q := &fakeQueue{}
	rt := &fakeRealtime{}
	n := NewRedisNotifier(q, rt, config.NotificationConfig{QueueKey: "q", RealtimeChannel: "rt"}, nil)

	p := domain.Payload{
		RecipientID: uuid.New(),
		Type:        domain.TypeNewJobMatch,
		Channel:     "email",
		Message:     "New job match found: Go Developer (Match Score: 84%)",
	}
	require.NoError(t, n.Notify(context.Background(), p))

	require.Len(t, q.pushed["q"], 1)
	var decoded domain.Payload
	require.NoError(t, json.Unmarshal(q.pushed["q"][0], &decoded))
	assert.Equal(t, p.RecipientID, decoded.RecipientID)
	assert.Equal(t, p.Message, decoded.Message)

	assert.Len(t, q.published["rt"], 1)
	require.Len(t, rt.got, 1)
	assert.Equal(t, p.RecipientID, rt.got[0].RecipientID)
}

func TestRedisNotifier_PushFailureIsAnError(t *testing.T) {
	q := &fakeQueue{pushErr: errors.New("READONLY")}
	rt := &fakeRealtime{}
	n := NewRedisNotifier(q, rt, config.NotificationConfig{}, nil)

	err := n.Notify(context.Background(), domain.Payload{RecipientID: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueUnavailable)
	assert.Empty(t, rt.got)
}

func TestRedisNotifier_PublishFailureIsTolerated(t *testing.T) {
	q := &fakeQueue{publishErr: errors.New("timeout")}
	n := NewRedisNotifier(q, nil, config.NotificationConfig{}, nil)

	require.NoError(t, n.Notify(context.Background(), domain.Payload{RecipientID: uuid.New()}))
	assert.Len(t, q.pushed["notifications:queue"], 1)
}

func TestRedisNotifier_NoQueue(t *testing.T) {
	n := NewRedisNotifier(nil, nil, config.NotificationConfig{}, nil)
	assert.ErrorIs(t, n.Notify(context.Background(), domain.Payload{}), ErrQueueUnavailable)
}
