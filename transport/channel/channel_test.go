package channel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/fieldcounter/transport"
	"github.com/drblury/fieldcounter/transport/transporttest"
)

func TestRegister(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))
}

func TestBuild(t *testing.T) {
	t.Run("delivers published messages", func(t *testing.T) {
		tr, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = tr.Close() })

		messages, err := tr.Subscriber.Subscribe(context.Background(), "input")
		require.NoError(t, err)

		require.NoError(t, tr.Publisher.Publish("input", message.NewMessage("1", []byte(`{"color":"red"}`))))

		select {
		case msg := <-messages:
			assert.Equal(t, `{"color":"red"}`, string(msg.Payload))
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	})

	t.Run("uses custom factory", func(t *testing.T) {
		originalFactory := Factory
		defer func() { Factory = originalFactory }()

		pub := &transporttest.Publisher{}
		sub := &transporttest.Subscriber{}
		var buffer int64
		Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
			buffer = cfg.OutputChannelBuffer
			return pub, sub
		}

		tr, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, pub, tr.Publisher)
		assert.Equal(t, sub, tr.Subscriber)
		assert.EqualValues(t, OutputBuffer, buffer)
	})
}
