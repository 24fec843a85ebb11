// Package telemetry provides the simulation's event port, event sinks and
// windowed ecosystem statistics.
package telemetry

// Category classifies an event.
type Category string

const (
	CategoryBirth      Category = "birth"
	CategoryDeath      Category = "death"
	CategoryFeeding    Category = "feeding"
	CategoryCombat     Category = "combat"
	CategoryPopulation Category = "population"
	CategoryCull       Category = "cull"
	CategoryError      Category = "error"
)

// Event is a structured record emitted by the simulation core.
type Event struct {
	Tick     int64          `json:"tick"`
	Category Category       `json:"category"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
}

// Recorder receives events. Implementations must not call back into the
// simulation.
type Recorder interface {
	Record(Event)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Event)

// Record calls f(e).
func (f RecorderFunc) Record(e Event) { f(e) }

type discard struct{}

func (discard) Record(Event) {}

// Discard drops every event.
var Discard Recorder = discard{}

type multi []Recorder

func (m multi) Record(e Event) {
	for _, r := range m {
		r.Record(e)
	}
}

// Multi fans events out to every non-nil recorder.
func Multi(rs ...Recorder) Recorder {
	var m multi
	for _, r := range rs {
		if r != nil {
			m = append(m, r)
		}
	}
	switch len(m) {
	case 0:
		return Discard
	case 1:
		return m[0]
	}
	return m
}

// Buffer keeps events in memory.
type Buffer struct {
	Events []Event
}

// Record appends e.
func (b *Buffer) Record(e Event) { b.Events = append(b.Events, e) }

// ByCategory returns the buffered events of one category.
func (b *Buffer) ByCategory(c Category) []Event {
	var out []Event
	for _, e := range b.Events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all buffered events.
func (b *Buffer) Reset() { b.Events = b.Events[:0] }

// NewBirthEvent creates a birth event.
func NewBirthEvent(tick int64, childID uint64, parentIDs []uint64, generation int) Event {
	return Event{
		Tick:     tick,
		Category: CategoryBirth,
		Message:  "creature born",
		Data: map[string]any{
			"id":         childID,
			"parents":    parentIDs,
			"generation": generation,
		},
	}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int64, id uint64, cause string, age int64, fitness float64) Event {
	return Event{
		Tick:     tick,
		Category: CategoryDeath,
		Message:  "creature died",
		Data: map[string]any{
			"id":      id,
			"cause":   cause,
			"age":     age,
			"fitness": fitness,
		},
	}
}

// NewFeedingEvent creates a successful feeding event.
func NewFeedingEvent(tick int64, id uint64, kind string, gain float64) Event {
	return Event{
		Tick:     tick,
		Category: CategoryFeeding,
		Message:  "creature fed",
		Data: map[string]any{
			"id":   id,
			"kind": kind,
			"gain": gain,
		},
	}
}

// NewCombatEvent creates a combat outcome event.
func NewCombatEvent(tick int64, attackerID, defenderID uint64, outcome string, damage float64, killed bool) Event {
	return Event{
		Tick:     tick,
		Category: CategoryCombat,
		Message:  "combat " + outcome,
		Data: map[string]any{
			"attacker": attackerID,
			"defender": defenderID,
			"outcome":  outcome,
			"damage":   damage,
			"killed":   killed,
		},
	}
}

// NewPopulationEvent creates a population-pressure snapshot.
func NewPopulationEvent(tick int64, population, target int, ratio, mortality float64, deaths int) Event {
	return Event{
		Tick:     tick,
		Category: CategoryPopulation,
		Message:  "population pressure applied",
		Data: map[string]any{
			"population": population,
			"target":     target,
			"ratio":      ratio,
			"mortality":  mortality,
			"deaths":     deaths,
		},
	}
}

// NewCullEvent creates an emergency cull event.
func NewCullEvent(tick int64, culled, population, max int) Event {
	return Event{
		Tick:     tick,
		Category: CategoryCull,
		Message:  "emergency population cull",
		Data: map[string]any{
			"culled":     culled,
			"population": population,
			"max":        max,
		},
	}
}

// NewErrorEvent reports a recovered invalid state.
func NewErrorEvent(tick int64, id uint64, msg string) Event {
	return Event{
		Tick:     tick,
		Category: CategoryError,
		Message:  msg,
		Data:     map[string]any{"id": id},
	}
}
