package sim

import (
	"math/rand/v2"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/particles"
)

// Attributes every particle type carries.
const (
	AttrID        = particles.IDAttribute
	AttrKillState = "Kill State"
	AttrBirthTime = "Birth Time"
	AttrPosition  = particles.PositionAttribute
	AttrVelocity  = "Velocity"
	AttrSize      = "Size"
	AttrColor     = "Color"
)

// MaxEventStorage bounds the payload an event can attach to a triggered particle.
const MaxEventStorage = 64

// Integrator proposes attribute offsets over each particle's remaining duration.
type Integrator interface {
	// OffsetAttributes names the Float3 attributes offsets are produced for.
	OffsetAttributes() *attr.Schema
	Integrate(iface *IntegratorInterface)
}

// Event finds particles that hit a discrete condition during their remaining
// duration and reacts to them.
type Event interface {
	Filter(iface *EventFilterInterface)
	Execute(iface *EventExecuteInterface)
}

// EventStorage is implemented by events that attach a payload to triggers.
type EventStorage interface {
	StorageSize() int
}

// Emitter creates particles once per step.
type Emitter interface {
	Emit(iface *EmitterInterface)
}

// ForwardingListener observes particles right before their offsets are applied.
type ForwardingListener interface {
	Listen(iface *ForwardingInterface)
}

// Declarer is implemented by behaviors that need attributes on the particle
// type they are attached to.
type Declarer interface {
	Attributes(d *attr.Declaration)
}

// EmitterDeclarer is implemented by emitters that need attributes on the kinds
// they emit into.
type EmitterDeclarer interface {
	Attributes(kind string, d *attr.Declaration)
}

// IntegratorInterface is handed to Integrator.Integrate. Durations and
// offsets are indexed by block row.
type IntegratorInterface struct {
	set       particles.Set
	attrs     attr.Arrays
	durations []float32
	endTime   float32
	offsets   attr.Arrays
}

func (i *IntegratorInterface) Particles() particles.Set { return i.set }
func (i *IntegratorInterface) Attributes() attr.Arrays  { return i.attrs }
func (i *IntegratorInterface) Durations() []float32     { return i.durations }
func (i *IntegratorInterface) EndTime() float32         { return i.endTime }
func (i *IntegratorInterface) Offsets() attr.Arrays     { return i.offsets }

// EventFilterInterface is handed to Event.Filter.
type EventFilterInterface struct {
	set         particles.Set
	attrs       attr.Arrays
	offsets     attr.Arrays
	durations   []float32
	endTime     float32
	known       []float32
	storage     []byte
	storageSize int
	triggered   []int
	factors     []float32
}

func (f *EventFilterInterface) Particles() particles.Set { return f.set }
func (f *EventFilterInterface) Attributes() attr.Arrays  { return f.attrs }
func (f *EventFilterInterface) Offsets() attr.Arrays     { return f.offsets }
func (f *EventFilterInterface) Durations() []float32     { return f.durations }
func (f *EventFilterInterface) EndTime() float32         { return f.endTime }

// KnownMinTimeFactor is the earliest trigger found for row by events
// registered before this one, or 1.
func (f *EventFilterInterface) KnownMinTimeFactor(row int) float32 { return f.known[row] }

// TriggerParticle reports that row hits the event at factor of its remaining
// duration. The returned slice is the row's payload storage.
func (f *EventFilterInterface) TriggerParticle(row int, factor float32) []byte {
	factor = min(max(factor, 0), 1)
	f.triggered = append(f.triggered, row)
	f.factors = append(f.factors, factor)
	return f.payload(row)
}

func (f *EventFilterInterface) payload(row int) []byte {
	if f.storageSize == 0 {
		return nil
	}
	return f.storage[row*f.storageSize : (row+1)*f.storageSize]
}

// EventExecuteInterface is handed to Event.Execute with the rows this event
// claimed. Attributes already reflect the offsets up to each trigger time.
type EventExecuteInterface struct {
	set          particles.Set
	attrs        attr.Arrays
	currentTimes []float32
	durations    []float32
	endTime      float32
	storage      []byte
	storageSize  int
	allocator    *particles.Allocator
	rng          *rand.Rand
}

func (e *EventExecuteInterface) Particles() particles.Set { return e.set }
func (e *EventExecuteInterface) Attributes() attr.Arrays  { return e.attrs }
func (e *EventExecuteInterface) EndTime() float32         { return e.endTime }
func (e *EventExecuteInterface) Allocator() *particles.Allocator {
	return e.allocator
}
func (e *EventExecuteInterface) Rand() *rand.Rand { return e.rng }

// CurrentTimes holds, per row, the time at which the event fired.
func (e *EventExecuteInterface) CurrentTimes() []float32 { return e.currentTimes }

// RemainingDurations holds, per row, the time left in the step after the trigger.
func (e *EventExecuteInterface) RemainingDurations() []float32 { return e.durations }

// Storage returns the payload written by Filter for row.
func (e *EventExecuteInterface) Storage(row int) []byte {
	if e.storageSize == 0 {
		return nil
	}
	return e.storage[row*e.storageSize : (row+1)*e.storageSize]
}

// Kill flags row as dead. Dead particles are removed at the end of the step.
func (e *EventExecuteInterface) Kill(row int) {
	e.attrs.Byte(AttrKillState)[row] = 1
}

// Spawn creates perParent particles of kind for every row in parents. Each
// child's birth time is sampled uniformly over its parent's remaining
// interval; callers may overwrite it.
func (e *EventExecuteInterface) Spawn(kind string, parents []int, perParent int) *particles.Sets {
	sets := e.allocator.Request(kind, len(parents)*perParent)
	births := make([]float32, 0, sets.Size())
	for _, row := range parents {
		for j := 0; j < perParent; j++ {
			births = append(births, e.currentTimes[row]+e.rng.Float32()*e.durations[row])
		}
	}
	sets.FillFloat(AttrBirthTime, births)
	return sets
}

// EmitterInterface is handed to Emitter.Emit.
type EmitterInterface struct {
	span      TimeSpan
	step      int
	allocator *particles.Allocator
	rng       *rand.Rand
}

func (e *EmitterInterface) TimeSpan() TimeSpan              { return e.span }
func (e *EmitterInterface) StepIndex() int                  { return e.step }
func (e *EmitterInterface) Allocator() *particles.Allocator { return e.allocator }
func (e *EmitterInterface) Rand() *rand.Rand                { return e.rng }

// ForwardingInterface is handed to ForwardingListener.Listen. Row r is about
// to move by TimeFactors()[r] of its offsets, covering that fraction of
// Durations()[r].
type ForwardingInterface struct {
	set       particles.Set
	attrs     attr.Arrays
	offsets   attr.Arrays
	factors   []float32
	durations []float32
	endTime   float32
	allocator *particles.Allocator
	rng       *rand.Rand
}

func (f *ForwardingInterface) Particles() particles.Set        { return f.set }
func (f *ForwardingInterface) Attributes() attr.Arrays         { return f.attrs }
func (f *ForwardingInterface) Offsets() attr.Arrays            { return f.offsets }
func (f *ForwardingInterface) TimeFactors() []float32          { return f.factors }
func (f *ForwardingInterface) Durations() []float32            { return f.durations }
func (f *ForwardingInterface) EndTime() float32                { return f.endTime }
func (f *ForwardingInterface) Allocator() *particles.Allocator { return f.allocator }
func (f *ForwardingInterface) Rand() *rand.Rand                { return f.rng }
