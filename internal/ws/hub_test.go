package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishOnNilHub(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(Event{Type: "stock_update"}) })
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	h.Publish(Event{Type: "order", Action: "created"})
	cancel()

	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, h.ClientCount())

	// publishing after shutdown must not block or panic
	assert.NotPanics(t, func() { h.Publish(Event{Type: "order"}) })
}
