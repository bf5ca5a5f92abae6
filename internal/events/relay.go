package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/metrics"
)

// RelayEnvelope is the wire format for cross-instance fan-out. Origin lets a
// consumer skip envelopes it published itself.
type RelayEnvelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Relay mirrors room broadcasts across server instances through Kafka. Each
// instance consumes with a unique group id so every instance sees every
// envelope; room membership stays process-local and only the instances that
// actually hold members deliver anything.
type Relay struct {
	writer     *kafka.Writer
	reader     *kafka.Reader
	instanceID string
	log        *zap.SugaredLogger
}

func NewRelay(brokers []string, topic, groupID string, log *zap.SugaredLogger) *Relay {
	instanceID := uuid.NewString()
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	// The group id is unique per boot, so it never has committed offsets;
	// start at the tail or every restart would replay the retained history
	// into live rooms.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID + "-" + instanceID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Relay{writer: writer, reader: reader, instanceID: instanceID, log: log}
}

// Publish mirrors a room broadcast to peer instances.
func (r *Relay) Publish(room, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	env := RelayEnvelope{Origin: r.instanceID, Room: room, Event: event, Data: raw}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	metrics.RelayEvents.WithLabelValues("out").Inc()
	return r.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(room),
		Value: value,
	})
}

// Run consumes relay envelopes until ctx is cancelled, re-broadcasting those
// published by other instances into the local hub.
func (r *Relay) Run(ctx context.Context, hub Broadcaster) {
	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				r.log.Info("relay consumer stopping")
				return
			}
			r.log.Errorw("relay read failed", "err", err)
			time.Sleep(time.Second)
			continue
		}
		var env RelayEnvelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			r.log.Errorw("relay envelope malformed", "err", err)
			continue
		}
		r.dispatch(env, hub)
	}
}

// dispatch delivers one envelope to the local hub, skipping envelopes this
// instance published itself. Reports whether delivery happened.
func (r *Relay) dispatch(env RelayEnvelope, hub Broadcaster) bool {
	if env.Origin == r.instanceID {
		return false
	}
	hub.Broadcast(env.Room, env.Event, env.Data)
	metrics.RelayEvents.WithLabelValues("in").Inc()
	return true
}

func (r *Relay) Close() error {
	werr := r.writer.Close()
	rerr := r.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
