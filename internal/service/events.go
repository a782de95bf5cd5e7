package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	commonmqtt "github.com/djval79/caresync1/common/mqtt"
	commonredis "github.com/djval79/caresync1/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Event types published after a committed mutation.
const (
	EventShiftCreated           = "shift.created"
	EventShiftAssigned          = "shift.assigned"
	EventShiftUpdated           = "shift.updated"
	EventStaffCreated           = "staff.created"
	EventStaffUpdated           = "staff.updated"
	EventClientCreated          = "client.created"
	EventClientUpdated          = "client.updated"
	EventMedicationAdded        = "medication.added"
	EventMedicationAdministered = "medication.administered"
	EventHoursReconciled        = "staff.hours_reconciled"
)

// Event audit record of one committed change.
type Event struct {
	Type      string    `json:"type"`
	SubjectID string    `json:"subject_id"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// EventPublisher delivers audit events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RedisStreamPublisher appends events to a Redis stream (XADD).
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	if stream == "" {
		stream = "caresync:events"
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, ev Event) error {
	_, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, ev.Type, ev)
	return err
}

// mqttPublishClient the subset of common/mqtt.Client used here
type mqttPublishClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	QoS() byte
}

var _ mqttPublishClient = (*commonmqtt.Client)(nil)

// MQTTPublisher publishes each event to <prefix>/<type>.
type MQTTPublisher struct {
	client      mqttPublishClient
	topicPrefix string
}

func NewMQTTPublisher(client mqttPublishClient, topicPrefix string) *MQTTPublisher {
	if topicPrefix == "" {
		topicPrefix = "caresync/events"
	}
	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}
}

func (p *MQTTPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(p.topicPrefix+"/"+ev.Type, p.client.QoS(), false, payload)
}

// MultiPublisher fans out to every publisher and joins their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// emitter stamps and publishes events, logging failures instead of returning them.
type emitter struct {
	pub    EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

func newEmitter(pub EventPublisher, logger *zap.Logger) emitter {
	if pub == nil {
		pub = NopPublisher{}
	}
	return emitter{pub: pub, logger: logger, now: time.Now}
}

func (e emitter) emit(ctx context.Context, eventType, subjectID string, data any) {
	ev := Event{Type: eventType, SubjectID: subjectID, Data: data, At: e.now().UTC()}
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
	}
}
