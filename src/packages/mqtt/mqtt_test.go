package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMqtt(t *testing.T) {
	m := NewMqtt(MqttOptions{
		Broker:   "tcp://127.0.0.1:1",
		ClientID: "analytics-test",
		QoS:      1,
	})

	t.Run("should not be connected before open", func(t *testing.T) {
		assert.False(t, m.IsConnected())
	})

	t.Run("should refuse publish before open", func(t *testing.T) {
		err := m.Publish("events/lc", []byte(`{}`))
		assert.Error(t, err)
	})

	t.Run("should skip status without topic", func(t *testing.T) {
		assert.NoError(t, m.publishStatus(true))
	})
}
