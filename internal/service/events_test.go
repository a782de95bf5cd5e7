package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMQTT struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeMQTT) Publish(topic string, _ byte, _ bool, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeMQTT) QoS() byte { return 1 }

func TestRedisStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	pub := NewRedisStreamPublisher(rdb, "", 100)
	ev := Event{Type: EventShiftAssigned, SubjectID: "s4", Data: map[string]string{"staffId": "3"}, At: time.Unix(1716192000, 0).UTC()}
	require.NoError(t, pub.Publish(context.Background(), ev))

	msgs, err := rdb.XRange(context.Background(), "caresync:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, EventShiftAssigned, msgs[0].Values["type"])

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &decoded))
	assert.Equal(t, "s4", decoded.SubjectID)
}

func TestMQTTPublisher(t *testing.T) {
	f := &fakeMQTT{}
	pub := NewMQTTPublisher(f, "")
	require.NoError(t, pub.Publish(context.Background(), Event{Type: EventStaffCreated, SubjectID: "7"}))
	assert.Equal(t, []string{"caresync/events/staff.created"}, f.topics)
	assert.Contains(t, string(f.payloads[0]), `"subject_id":"7"`)
}

func TestMultiPublisherJoinsErrors(t *testing.T) {
	ok := &recordingPublisher{}
	bad := NewMQTTPublisher(&fakeMQTT{err: errors.New("broker down")}, "x")
	err := MultiPublisher{bad, ok}.Publish(context.Background(), Event{Type: EventClientCreated})
	require.Error(t, err)
	assert.Equal(t, []string{EventClientCreated}, ok.types())
}

func TestEmitterSwallowsErrors(t *testing.T) {
	e := newEmitter(NewMQTTPublisher(&fakeMQTT{err: errors.New("down")}, ""), zap.NewNop())
	assert.NotPanics(t, func() { e.emit(context.Background(), EventShiftCreated, "s1", nil) })
	assert.NotPanics(t, func() { newEmitter(nil, zap.NewNop()).emit(context.Background(), EventShiftCreated, "s1", nil) })
}
