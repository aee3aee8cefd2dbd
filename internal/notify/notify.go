// Package notify decides when a terminal should alert. Playback itself is
// delegated to a Player; this package only answers "should this event make
// noise", based on the event kind, the observed status transition and
// whether the terminal is still loading its initial snapshot.
package notify

import "pos-system/internal/domain"

type Sound string

const (
	SoundNewOrder   Sound = "new_order"
	SoundOrderReady Sound = "order_ready"
)

// Player performs the actual alert (audio on a real terminal).
type Player interface {
	Play(sound Sound)
}

// OnInsert: a freshly arrived order alerts unless the terminal is still
// bulk-loading its initial snapshot.
func OnInsert(live bool) (Sound, bool) {
	if !live {
		return "", false
	}
	return SoundNewOrder, true
}

// OnUpdate: the ready alert fires only on a transition INTO ready, never for
// an update that leaves the status unchanged or arrives during bulk load.
func OnUpdate(old, new domain.OrderStatus, live bool) (Sound, bool) {
	if !live {
		return "", false
	}
	if old != domain.StatusReady && new == domain.StatusReady {
		return SoundOrderReady, true
	}
	return "", false
}

// Trigger couples the decision functions to a Player.
type Trigger struct {
	player Player
}

func NewTrigger(player Player) *Trigger { return &Trigger{player: player} }

func (t *Trigger) OrderInserted(live bool) {
	if s, ok := OnInsert(live); ok {
		t.player.Play(s)
	}
}

func (t *Trigger) OrderUpdated(old, new domain.OrderStatus, live bool) {
	if s, ok := OnUpdate(old, new, live); ok {
		t.player.Play(s)
	}
}
