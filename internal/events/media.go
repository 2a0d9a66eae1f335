package events

import (
	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// Player reports a media event that carries no value, such as
// play-event or ended-event.
func (t *Translator) Player(el *dom.Element, tag string) {
	t.send(t.elementMessage(tag, el))
}

func (t *Translator) playerValue(tag string, el *dom.Element, value float64) {
	t.send(t.elementMessage(tag, el).Put("value", protocol.Float(value)))
}

func media(el *dom.Element) *dom.Media {
	if el.Media != nil {
		return el.Media
	}
	return &dom.Media{}
}

// TimeUpdated reports the playback position.
func (t *Translator) TimeUpdated(el *dom.Element) {
	t.playerValue("time-update-event", el, media(el).CurrentTime)
}

// DurationChanged reports the media duration.
func (t *Translator) DurationChanged(el *dom.Element) {
	t.playerValue("duration-changed-event", el, media(el).Duration)
}

// VolumeChanged reports the volume, 0 while muted.
func (t *Translator) VolumeChanged(el *dom.Element) {
	m := media(el)
	v := m.Volume
	if m.Muted {
		v = 0
	}
	t.playerValue("volume-changed-event", el, v)
}

// RateChanged reports the playback rate.
func (t *Translator) RateChanged(el *dom.Element) {
	t.playerValue("rate-changed-event", el, media(el).PlaybackRate)
}

// PlayerError reports the element's media error.
func (t *Translator) PlayerError(el *dom.Element) {
	msg := t.elementMessage("player-error-event", el)
	if e := media(el).Error; e != nil {
		msg.Add("code", protocol.Int(e.Code)).
			Add("message", protocol.RawSafe(e.Message))
	}
	t.send(msg)
}

// TransitionEvent is a CSS transition event.
type TransitionEvent struct {
	Event
	PropertyName string
}

// Transition tags.
const (
	TransitionStart  = "transition-start-event"
	TransitionRun    = "transition-run-event"
	TransitionEnd    = "transition-end-event"
	TransitionCancel = "transition-cancel-event"
)

// Transition reports a transition event.
func (t *Translator) Transition(tag string, el *dom.Element, ev *TransitionEvent) {
	t.send(t.elementMessage(tag, el).Add("property", protocol.Text(ev.PropertyName)))
	ev.StopPropagation()
}

// StackTransitionEnd reports the end of a stack layout's page transition.
func (t *Translator) StackTransitionEnd(stackID, property string, ev *Event) {
	t.send(t.message(TransitionEnd).
		Add("id", protocol.Text(stackID)).
		Put("property", protocol.Text(property)))
	ev.StopPropagation()
}

// AnimationEvent is a CSS animation event.
type AnimationEvent struct {
	Event
	AnimationName string
}

// Animation tags.
const (
	AnimationStart     = "animation-start-event"
	AnimationEnd       = "animation-end-event"
	AnimationCancel    = "animation-cancel-event"
	AnimationIteration = "animation-iteration-event"
)

// Animation reports an animation event.
func (t *Translator) Animation(tag string, el *dom.Element, ev *AnimationEvent) {
	t.send(t.elementMessage(tag, el).Add("name", protocol.Text(ev.AnimationName)))
	ev.StopPropagation()
}
