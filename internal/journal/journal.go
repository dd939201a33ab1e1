// Package journal carries structured diagnostic events out of the horde
// core: state transitions, path-search outcomes, admission decisions, and
// obstacle damage. Producers record through the Sink interface; the
// default NopSink guarantees that the absence of any consumer never
// alters core behavior.
package journal

import (
	"log/slog"

	"github.com/google/uuid"
)

// Kind classifies a diagnostic event.
type Kind string

const (
	KindEpisodeStart Kind = "episode_start"
	KindEpisodeEnd   Kind = "episode_end"
	KindStateChange  Kind = "state_change"
	KindPathResult   Kind = "path_result"
	KindAdmission    Kind = "admission"
	KindDamage       Kind = "damage"
	KindDestroyed    Kind = "destroyed"
)

// Event is a single diagnostic record. Fields not relevant to a Kind stay
// zero-valued.
type Event struct {
	Tick     int64     `json:"tick"`
	Agent    uint32    `json:"agent,omitempty"`
	Episode  uuid.UUID `json:"episode,omitempty"`
	Kind     Kind      `json:"kind"`
	State    string    `json:"state,omitempty"`
	Obstacle string    `json:"obstacle,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Value    int64     `json:"value,omitempty"`
}

// Sink consumes diagnostic events. Implementations must not block the
// calling tick; drop rather than stall.
type Sink interface {
	Record(ev Event)
}

// NopSink discards all events. The zero value is ready to use.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(Event) {}

// SlogSink mirrors events onto the default slog logger at debug level.
type SlogSink struct{}

// Record implements Sink.
func (SlogSink) Record(ev Event) {
	slog.Debug("horde event",
		"kind", ev.Kind,
		"tick", ev.Tick,
		"agent", ev.Agent,
		"episode", ev.Episode,
		"state", ev.State,
		"obstacle", ev.Obstacle,
		"detail", ev.Detail,
		"value", ev.Value)
}

// multiSink fans one event out to several sinks.
type multiSink []Sink

// Record implements Sink.
func (m multiSink) Record(ev Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

// Multi combines sinks into one. Nil sinks are skipped; an empty set
// collapses to NopSink.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return NopSink{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
