package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("coap://relay.local/ota/model?chunk=4&v=1.2")
	require.NoError(t, err)

	assert.Equal(t, "relay.local:5683", target.Addr)
	assert.Equal(t, []Option{
		{Number: OptionURIPath, Value: []byte("ota")},
		{Number: OptionURIPath, Value: []byte("model")},
		{Number: OptionURIQuery, Value: []byte("chunk=4")},
		{Number: OptionURIQuery, Value: []byte("v=1.2")},
	}, target.Options)
}

func TestParseTargetExplicitPortAndNoPath(t *testing.T) {
	target, err := ParseTarget("coap://127.0.0.1:9999")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", target.Addr)
	assert.Empty(t, target.Options)
}

func TestParseTargetPortDefault(t *testing.T) {
	target, err := ParseTargetPort("coap://relay.local/cmd", 6000)
	require.NoError(t, err)
	assert.Equal(t, "relay.local:6000", target.Addr)
}

func TestParseTargetRejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"http://relay/cmd", "coap:///cmd", "::"} {
		_, err := ParseTarget(raw)
		assert.Error(t, err, raw)
	}
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "coap://r/ota?chunk=0", WithQuery("coap://r/ota", "chunk", "0"))
	assert.Equal(t, "coap://r/ota?v=2&chunk=1", WithQuery("coap://r/ota?v=2", "chunk", "1"))
}
