package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/railsched/core/dispatch/history"
	"github.com/kilianp07/railsched/core/model"
	coremon "github.com/kilianp07/railsched/core/monitoring"
	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/core/track"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func record() history.Record {
	a := track.Facility(model.Facility{ID: "A"})
	b := track.Facility(model.Facility{ID: "B"})
	s := track.Plain(model.Segment{ID: "S", Length: 5000, Tracks: 1, SpeedLimitKMH: 72})
	return history.Record{
		ID: "rec-1", ScheduleID: 2, TrainID: 7, TrainName: "IC 7",
		Events: []schedule.Event{
			{TrainID: 7, From: a, To: a, Interval: schedule.Interval{Start: t0, End: t0.Add(time.Minute)}, Type: schedule.WaitingForAssemble},
			{TrainID: 7, From: a, To: s, Interval: schedule.Span(t0.Add(time.Minute), 0), Type: schedule.MovementToSegment},
			{TrainID: 7, From: s, To: b, Interval: schedule.Span(t0.Add(time.Minute), 250*time.Second), Type: schedule.MovementInSegment},
		},
	}
}

func TestNewDispatchMessage(t *testing.T) {
	msg := NewDispatchMessage(record())
	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, "rec-1", msg.RecordID)
	assert.Equal(t, t0, msg.Departure)
	assert.Equal(t, t0.Add(310*time.Second), msg.Arrival)
	require.Len(t, msg.Steps, 3)
	assert.Equal(t, "WAITING_FOR_ASSEMBLE", msg.Steps[0].Type)
	assert.Equal(t, "Segment:S", msg.Steps[2].From)
	assert.Equal(t, "railsched/train/7/dispatch", DispatchTopic("railsched", 7))
}

func TestNotifyDispatchPublishes(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	n, err := NewPahoNotifier(Config{Broker: "tcp://localhost:1883", QoS: 1, Retain: true})
	require.NoError(t, err)
	assert.Empty(t, mc.subscribed, "no ack subscription without ack timeout")

	require.NoError(t, n.NotifyDispatch(context.Background(), record()))
	require.Len(t, mc.published, 1)
	p := mc.published[0]
	assert.Equal(t, "railsched/train/7/dispatch", p.topic)
	assert.Equal(t, byte(1), p.qos)
	assert.True(t, p.retained)
	var msg DispatchMessage
	require.NoError(t, json.Unmarshal(p.payload, &msg))
	assert.Equal(t, 7, msg.TrainID)
	assert.Len(t, msg.Steps, 3)
}

func TestNotifyDispatchRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	useMock(t, mc)
	n, err := NewPahoNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	require.NoError(t, n.NotifyDispatch(context.Background(), record()))
	assert.Len(t, mc.published, 2)
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestNotifyDispatchErrorCaptured(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}}
	useMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	n, err := NewPahoNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	require.Error(t, n.NotifyDispatch(context.Background(), record()))
	require.Error(t, mon.err)
	assert.Equal(t, "7", mon.tags["train_id"])
	assert.Equal(t, "mqtt", mon.tags["module"])
}

func TestNotifyDispatchWaitsForAck(t *testing.T) {
	mc := &mockClient{autoAck: true}
	useMock(t, mc)
	n, err := NewPahoNotifier(Config{Broker: "tcp://localhost:1883", QoS: 1, AckTimeoutMS: 1000})
	require.NoError(t, err)
	require.Len(t, mc.subscribed, 1)
	assert.Equal(t, "railsched/train/+/ack", mc.subscribed[0].topic)
	assert.Equal(t, byte(1), mc.subscribed[0].qos)

	require.NoError(t, n.NotifyDispatch(context.Background(), record()))
}

func TestNotifyDispatchAckTimeout(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	n, err := NewPahoNotifier(Config{Broker: "tcp://localhost:1883", AckTimeoutMS: 5})
	require.NoError(t, err)
	err = n.NotifyDispatch(context.Background(), record())
	assert.True(t, errors.Is(err, ErrAckTimeout))
}

func TestNewPahoNotifierConnectError(t *testing.T) {
	useMock(t, &mockClient{connectErr: errors.New("refused")})
	_, err := NewPahoNotifier(Config{Broker: "tcp://localhost:1883"})
	assert.Error(t, err)
}

func TestMemoryNotifier(t *testing.T) {
	m := NewMemoryNotifier()
	require.NoError(t, m.NotifyDispatch(context.Background(), record()))
	m.FailIDs[7] = true
	assert.Error(t, m.NotifyDispatch(context.Background(), record()))
	assert.Len(t, m.Sent(), 1)
}
