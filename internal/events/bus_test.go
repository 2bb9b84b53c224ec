package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDeliversToSubscriber(t *testing.T) {
	b := New()
	ch := b.Subscribe()
	b.Emit(Event{Kind: KindInfo, Message: "hello"})

	select {
	case e := <-ch:
		assert.Equal(t, "hello", e.Message)
		assert.Equal(t, uint64(1), e.Sequence)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestDisabledBusDropsEmit(t *testing.T) {
	b := New()
	b.Disable()
	ch := b.Subscribe()
	b.Emit(Event{Kind: KindInfo, Message: "should not arrive"})

	select {
	case <-ch:
		t.Fatal("event delivered while bus disabled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitNeverBlocksProducer(t *testing.T) {
	b := New()
	_ = b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			b.Emit(Event{Kind: KindInfo})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked despite full subscriber buffer")
	}
}

func TestEssentialEventSurvivesBackpressure(t *testing.T) {
	b := New()
	ch := b.Subscribe()

	for i := 0; i < subscriberBuffer; i++ {
		b.Emit(Event{Kind: KindInfo})
	}
	b.Emit(Event{Kind: KindError, Message: "must survive"})

	var lastErr Event
	found := false
drain:
	for {
		select {
		case e := <-ch:
			if e.Kind == KindError {
				lastErr = e
				found = true
			}
		default:
			break drain
		}
	}
	require.True(t, found)
	assert.Equal(t, "must survive", lastErr.Message)
}
