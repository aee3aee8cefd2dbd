package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pos-system/internal/domain"
)

type recordingPlayer struct{ played []Sound }

func (p *recordingPlayer) Play(s Sound) { p.played = append(p.played, s) }

func TestOnInsert(t *testing.T) {
	_, ok := OnInsert(false)
	assert.False(t, ok, "suppressed during initial bulk load")

	s, ok := OnInsert(true)
	assert.True(t, ok)
	assert.Equal(t, SoundNewOrder, s)
}

func TestOnUpdate(t *testing.T) {
	cases := []struct {
		name     string
		old, new domain.OrderStatus
		live     bool
		want     bool
	}{
		{"transition into ready", domain.StatusPreparing, domain.StatusReady, true, true},
		{"already ready", domain.StatusReady, domain.StatusReady, true, false},
		{"unrelated transition", domain.StatusPreparing, domain.StatusCancelled, true, false},
		{"into ready during bulk load", domain.StatusPreparing, domain.StatusReady, false, false},
		{"leaving ready", domain.StatusReady, domain.StatusDelivered, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, ok := OnUpdate(c.old, c.new, c.live)
			assert.Equal(t, c.want, ok)
			if ok {
				assert.Equal(t, SoundOrderReady, s)
			}
		})
	}
}

func TestTriggerDelegatesToPlayer(t *testing.T) {
	p := &recordingPlayer{}
	tr := NewTrigger(p)

	tr.OrderInserted(false)
	tr.OrderInserted(true)
	tr.OrderUpdated(domain.StatusPreparing, domain.StatusReady, true)
	tr.OrderUpdated(domain.StatusReady, domain.StatusReady, true)

	assert.Equal(t, []Sound{SoundNewOrder, SoundOrderReady}, p.played)
}
