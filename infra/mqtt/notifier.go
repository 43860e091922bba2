package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/railsched/core/dispatch/history"
	coremon "github.com/kilianp07/railsched/core/monitoring"
	"github.com/kilianp07/railsched/infra/logger"
)

// ErrAckTimeout is returned when no acknowledgment arrives in time.
var ErrAckTimeout = errors.New("dispatch acknowledgment timeout")

// Step is one event of a dispatched plan as sent to the field.
type Step struct {
	Type  string    `json:"type"`
	From  string    `json:"from"`
	To    string    `json:"to"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DispatchMessage is the payload published for a dispatched train.
type DispatchMessage struct {
	MessageID  string    `json:"message_id"`
	RecordID   string    `json:"record_id"`
	ScheduleID int       `json:"schedule_id"`
	TrainID    int       `json:"train_id"`
	TrainName  string    `json:"train_name,omitempty"`
	Departure  time.Time `json:"departure"`
	Arrival    time.Time `json:"arrival"`
	Steps      []Step    `json:"steps"`
	Timestamp  int64     `json:"timestamp"`
}

// NewDispatchMessage converts a history record into its wire form.
func NewDispatchMessage(rec history.Record) DispatchMessage {
	msg := DispatchMessage{
		MessageID:  uuid.NewString(),
		RecordID:   rec.ID,
		ScheduleID: rec.ScheduleID,
		TrainID:    rec.TrainID,
		TrainName:  rec.TrainName,
		Steps:      make([]Step, 0, len(rec.Events)),
		Timestamp:  time.Now().UnixMilli(),
	}
	for i, e := range rec.Events {
		if i == 0 || e.Interval.Start.Before(msg.Departure) {
			msg.Departure = e.Interval.Start
		}
		if e.Interval.End.After(msg.Arrival) {
			msg.Arrival = e.Interval.End
		}
		msg.Steps = append(msg.Steps, Step{
			Type:  e.Type.String(),
			From:  e.From.Name(),
			To:    e.To.Name(),
			Start: e.Interval.Start,
			End:   e.Interval.End,
		})
	}
	return msg
}

// DispatchTopic is the topic a train's orders are published on.
func DispatchTopic(prefix string, trainID int) string {
	return fmt.Sprintf("%s/train/%d/dispatch", prefix, trainID)
}

// AckTopic is the wildcard topic acknowledgments arrive on.
func AckTopic(prefix string) string {
	return prefix + "/train/+/ack"
}

// PahoNotifier publishes dispatched plans with Eclipse Paho.
type PahoNotifier struct {
	cli    pahoClient
	cfg    Config
	logger logger.Logger

	mu   sync.Mutex
	acks map[string]chan struct{}
}

// NewPahoNotifier connects to the broker and, when acknowledgments are
// enabled, subscribes to the ack topic.
func NewPahoNotifier(cfg Config) (*PahoNotifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	n := &PahoNotifier{cfg: cfg, logger: log, acks: make(map[string]chan struct{})}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if cfg.ackTimeout() <= 0 {
			return
		}
		if token := c.Subscribe(AckTopic(cfg.TopicPrefix), cfg.QoS, n.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	n.cli = c
	return n, nil
}

func (n *PahoNotifier) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		n.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.acks[m.MessageID]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		n.logger.Infof("received ack %s", m.MessageID)
	}
}

// NotifyDispatch publishes the record on the train's dispatch topic,
// retrying with exponential backoff, then waits for an acknowledgment when
// configured.
func (n *PahoNotifier) NotifyDispatch(ctx context.Context, rec history.Record) error {
	msg := NewDispatchMessage(rec)
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var ack chan struct{}
	if n.cfg.ackTimeout() > 0 {
		ack = make(chan struct{}, 1)
		n.mu.Lock()
		n.acks[msg.MessageID] = ack
		n.mu.Unlock()
		defer func() {
			n.mu.Lock()
			delete(n.acks, msg.MessageID)
			n.mu.Unlock()
		}()
	}

	topic := DispatchTopic(n.cfg.TopicPrefix, rec.TrainID)
	if err := n.publish(ctx, topic, payload); err != nil {
		coremon.CaptureException(err, map[string]string{
			"module":   "mqtt",
			"train_id": strconv.Itoa(rec.TrainID),
		})
		return err
	}
	n.logger.Infof("sent dispatch %s for train %d to %s", msg.MessageID, rec.TrainID, topic)
	if ack == nil {
		return nil
	}
	return n.waitAck(ctx, ack, msg.MessageID)
}

func (n *PahoNotifier) publish(ctx context.Context, topic string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= n.cfg.MaxRetries; attempt++ {
		token := n.cli.Publish(topic, n.cfg.QoS, n.cfg.Retain, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			return nil
		}
		n.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == n.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.cfg.backoff() * time.Duration(1<<attempt)):
		}
	}
	return publishErr
}

func (n *PahoNotifier) waitAck(ctx context.Context, ack <-chan struct{}, id string) error {
	timer := time.NewTimer(n.cfg.ackTimeout())
	defer timer.Stop()
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrAckTimeout, id)
	}
}

// Disconnect gracefully closes the MQTT connection.
func (n *PahoNotifier) Disconnect() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
