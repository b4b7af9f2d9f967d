package coap

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice answers each request once using reply; a nil reply stays silent.
type fakeDevice struct {
	conn     net.PacketConn
	requests chan wire.Message
}

func newFakeDevice(t *testing.T, reply func(wire.Message) []byte) *fakeDevice {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	device := &fakeDevice{conn: conn, requests: make(chan wire.Message, 8)}
	go func() {
		buf := make([]byte, 2048)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			msg, err := wire.Unmarshal(buf[:n])
			if err != nil {
				continue
			}
			device.requests <- msg
			if out := reply(msg); out != nil {
				_, _ = conn.WriteTo(out, addr)
			}
		}
	}()
	return device
}

func (d *fakeDevice) url(path string) string {
	return fmt.Sprintf("coap://%s%s", d.conn.LocalAddr().String(), path)
}

func ack(id uint16, code wire.Code, payload []byte) []byte {
	out, err := wire.Message{Type: wire.TypeAcknowledgment, Code: code, MessageID: id, Payload: payload}.Marshal()
	if err != nil {
		panic(err)
	}
	return out
}

func fixedID(id uint16) Option {
	return WithMessageIDs(func() uint16 { return id })
}

func TestPutReceivesMatchingAck(t *testing.T) {
	device := newFakeDevice(t, func(m wire.Message) []byte {
		return ack(m.MessageID, wire.CodeChanged, []byte("ok"))
	})
	client := NewClient(fixedID(0x1234))

	response, err := client.Put(context.Background(), device.url("/ota/model?chunk=3"), []byte{1, 2, 3}, time.Second)
	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Equal(t, uint8(68), response.Code)
	assert.Equal(t, []byte("ok"), response.Payload)

	request := <-device.requests
	assert.Equal(t, wire.TypeConfirmable, request.Type)
	assert.Equal(t, wire.CodePut, request.Code)
	assert.Equal(t, uint16(0x1234), request.MessageID)
	assert.Equal(t, []string{"ota", "model"}, request.OptionValues(wire.OptionURIPath))
	assert.Equal(t, []string{"chunk=3"}, request.OptionValues(wire.OptionURIQuery))
	assert.Equal(t, []byte{1, 2, 3}, request.Payload)
}

func TestPutErrorCodeIsNotSuccess(t *testing.T) {
	device := newFakeDevice(t, func(m wire.Message) []byte {
		return ack(m.MessageID, wire.Code(132), nil)
	})

	response, err := NewClient().Put(context.Background(), device.url("/cmd"), []byte("x"), time.Second)
	require.NoError(t, err)
	assert.False(t, response.Success)
	assert.Equal(t, uint8(132), response.Code)
}

func TestPutTimesOutWithoutAck(t *testing.T) {
	device := newFakeDevice(t, func(wire.Message) []byte { return nil })

	start := time.Now()
	_, err := NewClient().Put(context.Background(), device.url("/cmd"), []byte("x"), 150*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrTransportTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	// Exactly one datagram: the client never retransmits.
	<-device.requests
	select {
	case extra := <-device.requests:
		t.Fatalf("unexpected retransmission %d", extra.MessageID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPutContextDeadlineBoundsWait(t *testing.T) {
	device := newFakeDevice(t, func(wire.Message) []byte { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewClient().Put(ctx, device.url("/cmd"), []byte("x"), 5*time.Second)
	require.ErrorIs(t, err, domain.ErrTransportTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPutCancelledIsNotTimeout(t *testing.T) {
	device := newFakeDevice(t, func(wire.Message) []byte { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-device.requests
		cancel()
	}()

	start := time.Now()
	_, err := NewClient().Put(ctx, device.url("/cmd"), []byte("x"), 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTransportTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPutMismatchedIDIsFailure(t *testing.T) {
	device := newFakeDevice(t, func(m wire.Message) []byte {
		return ack(m.MessageID+1, wire.CodeChanged, nil)
	})

	_, err := NewClient(fixedID(7)).Put(context.Background(), device.url("/cmd"), []byte("x"), time.Second)
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestPutUndecodableAck(t *testing.T) {
	device := newFakeDevice(t, func(wire.Message) []byte { return []byte{0x80, 0x44} })

	_, err := NewClient().Put(context.Background(), device.url("/cmd"), []byte("x"), time.Second)
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestPutResetIsFailure(t *testing.T) {
	device := newFakeDevice(t, func(m wire.Message) []byte {
		out, _ := wire.Message{Type: wire.TypeReset, MessageID: m.MessageID}.Marshal()
		return out
	})

	_, err := NewClient().Put(context.Background(), device.url("/cmd"), []byte("x"), time.Second)
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestPutRejectsBadURL(t *testing.T) {
	_, err := NewClient().Put(context.Background(), "http://example.com/cmd", nil, time.Second)
	require.Error(t, err)
}
