package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages []recordedMessage
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, recordedMessage{subject: subject, data: data})
	return nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.UnixMilli(1_760_000_000_000) }

func sampleRecord() domain.TelemetryRecord {
	return domain.TelemetryRecord{
		DeviceID:       0x2a,
		RelayID:        "relay.north",
		RSSI:           -71,
		VoltageMV:      3712,
		TemperatureC:   -4,
		AcousticEvents: 3,
		ElapsedSeconds: 900,
		GrowthPoints:   47,
		MeshHops:       2,
		Status:         domain.StatusAnomaly,
		Tamper:         true,
	}
}

func TestPublisherStoreAndAlert(t *testing.T) {
	conn := &fakeConn{}
	publisher := &Publisher{nc: conn, clock: fixedClock{}}
	record := sampleRecord()

	require.NoError(t, publisher.Store(context.Background(), record))
	require.NoError(t, publisher.Alert(context.Background(), record))
	require.Len(t, conn.messages, 2)

	assert.Equal(t, "arbor.telemetry.relay_north", conn.messages[0].subject)
	assert.Equal(t, "arbor.alerts.0000002a", conn.messages[1].subject)

	stored, err := DecodeEvent(conn.messages[0].data)
	require.NoError(t, err)
	assert.Equal(t, record, stored.Record)
	assert.False(t, stored.Alert)
	assert.Equal(t, int64(1_760_000_000_000), stored.ObservedAt)

	alert, err := DecodeEvent(conn.messages[1].data)
	require.NoError(t, err)
	assert.True(t, alert.Alert)
}

func TestEncodeEventIsDeterministic(t *testing.T) {
	event := Event{Record: sampleRecord(), ObservedAt: 5}

	first, err := EncodeEvent(event)
	require.NoError(t, err)
	second, err := EncodeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPublisherSurfacesPublishErrors(t *testing.T) {
	publisher := &Publisher{nc: &fakeConn{err: errors.New("no responders")}, clock: fixedClock{}}

	err := publisher.Store(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish arbor.telemetry.relay_north")
}

func TestSubjectTokenSanitises(t *testing.T) {
	assert.Equal(t, "unknown", subjectToken(""))
	assert.Equal(t, "a_b_c_", subjectToken("a.b*c>"))
}
