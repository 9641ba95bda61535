package sim

import (
	"context"
	"math/rand/v2"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/block"
	"github.com/san-kum/particlesim/internal/compute"
	"github.com/san-kum/particlesim/internal/particles"
)

// Solver advances a particles.State by one step of a StepDescription.
// Blocks are independent, so they are simulated in parallel on a compute.Pool.
type Solver struct {
	pool    *compute.Pool
	seed    uint64
	log     *logrus.Entry
	scratch scratchPool
}

func NewSolver(pool *compute.Pool, seed uint64, log *logrus.Entry) *Solver {
	if log == nil {
		log = logrus.WithField("component", "solver")
	}
	return &Solver{pool: pool, seed: seed, log: log}
}

// worker is the per goroutine context of a pool slot.
type worker struct {
	alloc *particles.Allocator
	rng   *rand.Rand
}

type task struct {
	ptype *ParticleType
	block *block.Block
}

type stepRun struct {
	s       *Solver
	state   *particles.State
	desc    *StepDescription
	span    TimeSpan
	step    int
	killed  atomic.Int64
	emitted atomic.Int64
}

// Step simulates one step and compacts every container afterwards.
func (s *Solver) Step(ctx context.Context, state *particles.State, desc *StepDescription, span TimeSpan, step int) (StepStats, error) {
	r := &stepRun{s: s, state: state, desc: desc, span: span, step: step}
	stats := StepStats{Step: step, Start: span.Start, Duration: span.Duration}

	var tasks []task
	for _, t := range desc.Types {
		c, ok := state.Container(t.Name)
		if !ok {
			continue
		}
		for _, b := range c.Blocks() {
			tasks = append(tasks, task{ptype: t, block: b})
		}
	}

	workers := r.workers(0)
	err := s.pool.ForEach(ctx, len(tasks), func(w, i int) error {
		r.simulateExisting(workers[w], tasks[i])
		return nil
	})
	if err != nil {
		return stats, err
	}

	// Emitters keep per-step state of their own and run one at a time.
	for _, em := range desc.Emitters {
		em.Emit(&EmitterInterface{
			span:      span,
			step:      step,
			allocator: workers[0].alloc,
			rng:       workers[0].rng,
		})
	}

	pending := r.collect(workers)
	for gen := 1; len(pending) > 0; gen++ {
		if gen > desc.spawnGenerations() {
			s.log.WithFields(logrus.Fields{
				"step":       step,
				"generation": gen,
				"blocks":     len(pending),
			}).Warn("spawn generation limit reached, newborn particles left unsimulated")
			break
		}
		stats.Generations = gen
		workers = r.workers(gen)
		err = s.pool.ForEach(ctx, len(pending), func(w, i int) error {
			r.simulateFromBirth(workers[w], pending[i])
			return nil
		})
		if err != nil {
			return stats, err
		}
		pending = r.collect(workers)
	}

	for _, t := range desc.Types {
		c, ok := state.Container(t.Name)
		if !ok {
			continue
		}
		stats.Released += c.Compact()
		stats.Kinds = append(stats.Kinds, KindStats{
			Kind:      t.Name,
			Particles: c.CountActive(),
			Blocks:    c.Len(),
		})
	}
	stats.Emitted = int(r.emitted.Load())
	stats.Killed = int(r.killed.Load())
	return stats, nil
}

func (r *stepRun) workers(gen int) []*worker {
	ws := make([]*worker, r.s.pool.Workers())
	for i := range ws {
		seq := uint64(r.step)<<32 | uint64(gen)<<16 | uint64(i)
		ws[i] = &worker{
			alloc: particles.NewAllocator(r.state),
			rng:   rand.New(rand.NewPCG(r.s.seed, seq)),
		}
	}
	return ws
}

// collect gathers the blocks allocated by workers as from-birth tasks.
func (r *stepRun) collect(ws []*worker) []task {
	var tasks []task
	for _, w := range ws {
		for _, a := range w.alloc.AllocatedBlocks() {
			t, ok := r.desc.Type(a.Kind)
			if !ok {
				continue
			}
			r.emitted.Add(int64(a.Block.ActiveCount()))
			tasks = append(tasks, task{ptype: t, block: a.Block})
		}
	}
	return tasks
}

func (r *stepRun) simulateExisting(w *worker, t task) {
	n := t.block.ActiveCount()
	if n == 0 {
		return
	}
	durations := r.s.scratch.get(n)
	for i := range durations {
		durations[i] = r.span.Duration
	}
	r.simulateBlock(w, t, durations)
	r.s.scratch.put(durations)
	r.removeKilled(t.block)
}

func (r *stepRun) simulateFromBirth(w *worker, t task) {
	n := t.block.ActiveCount()
	if n == 0 {
		return
	}
	end := r.span.End()
	births := t.block.ActiveSlice().Float(AttrBirthTime)
	durations := r.s.scratch.get(n)
	for i := range durations {
		durations[i] = min(max(end-births[i], 0), r.span.Duration)
	}
	r.simulateBlock(w, t, durations)
	r.s.scratch.put(durations)
	r.removeKilled(t.block)
}

// simulateBlock runs the integrate, resolve, forward and execute cycle on the
// active rows of one block. durations[i] is the time row i still has to cover.
func (r *stepRun) simulateBlock(w *worker, t task, durations []float32) {
	b := t.block
	n := b.ActiveCount()
	attrs := b.ActiveSlice()
	offsets := attr.Allocate(t.ptype.Integrator.OffsetAttributes(), n)
	end := r.span.End()

	pending := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if durations[i] > 0 {
			pending = append(pending, i)
		}
	}

	iterations := r.desc.eventIterations()
	if len(t.ptype.Events) == 0 {
		iterations = 0
	}

	factors := r.s.scratch.get(n)
	defer r.s.scratch.put(factors)
	next := make([]int, n)
	currentTimes := r.s.scratch.get(n)
	defer r.s.scratch.put(currentTimes)
	storage := make([][]byte, len(t.ptype.Events))
	for i, ev := range t.ptype.Events {
		if st, ok := ev.(EventStorage); ok && st.StorageSize() > 0 {
			storage[i] = make([]byte, n*st.StorageSize())
		}
	}

	for it := 0; it < iterations && len(pending) > 0; it++ {
		set := particles.NewSet(b, pending)
		r.integrate(t.ptype, set, attrs, offsets, durations, end)
		r.findNextEvents(t.ptype, set, attrs, offsets, durations, end, storage, factors, next)
		r.forward(w, t.ptype, set, attrs, offsets, factors, durations, end)

		perEvent := make([][]int, len(t.ptype.Events))
		for _, i := range pending {
			if next[i] < 0 {
				durations[i] = 0
				continue
			}
			durations[i] *= 1 - factors[i]
			currentTimes[i] = end - durations[i]
			perEvent[next[i]] = append(perEvent[next[i]], i)
		}

		for ei, rows := range perEvent {
			if len(rows) == 0 {
				continue
			}
			ev := t.ptype.Events[ei]
			size := 0
			if storage[ei] != nil {
				size = len(storage[ei]) / n
			}
			ev.Execute(&EventExecuteInterface{
				set:          particles.NewSet(b, rows),
				attrs:        attrs,
				currentTimes: currentTimes,
				durations:    durations,
				endTime:      end,
				storage:      storage[ei],
				storageSize:  size,
				allocator:    w.alloc,
				rng:          w.rng,
			})
		}

		kill := attrs.Byte(AttrKillState)
		remaining := pending[:0]
		for _, i := range pending {
			if next[i] >= 0 && kill[i] == 0 && durations[i] > 0 {
				remaining = append(remaining, i)
			}
		}
		pending = remaining
	}

	if len(pending) == 0 {
		return
	}
	set := particles.NewSet(b, pending)
	r.integrate(t.ptype, set, attrs, offsets, durations, end)
	for _, i := range pending {
		factors[i] = 1
	}
	r.forward(w, t.ptype, set, attrs, offsets, factors, durations, end)
	for _, i := range pending {
		durations[i] = 0
	}
}

func (r *stepRun) integrate(pt *ParticleType, set particles.Set, attrs, offsets attr.Arrays, durations []float32, end float32) {
	for j := 0; j < offsets.Schema().Size(); j++ {
		buf := offsets.Buffer(j)
		for _, i := range set.Indices() {
			buf.Fill(attr.Float3{}, i, i+1)
		}
	}
	pt.Integrator.Integrate(&IntegratorInterface{
		set:       set,
		attrs:     attrs,
		durations: durations,
		endTime:   end,
		offsets:   offsets,
	})
}

// findNextEvents runs every event filter over set. next[i] receives the
// index of the earliest event for row i, or -1, and factors[i] its time
// factor. Ties go to the event registered first.
func (r *stepRun) findNextEvents(pt *ParticleType, set particles.Set, attrs, offsets attr.Arrays, durations []float32, end float32, storage [][]byte, factors []float32, next []int) {
	for _, i := range set.Indices() {
		factors[i] = 1
		next[i] = -1
	}
	n := attrs.Size()
	for ei, ev := range pt.Events {
		size := 0
		if storage[ei] != nil {
			size = len(storage[ei]) / n
		}
		f := &EventFilterInterface{
			set:         set,
			attrs:       attrs,
			offsets:     offsets,
			durations:   durations,
			endTime:     end,
			known:       factors,
			storage:     storage[ei],
			storageSize: size,
		}
		ev.Filter(f)
		for k, i := range f.triggered {
			tf := f.factors[k]
			if next[i] < 0 || tf < factors[i] {
				factors[i] = tf
				next[i] = ei
			}
		}
	}
}

// forward notifies listeners and then applies factors[i] of each offset to
// the matching attribute.
func (r *stepRun) forward(w *worker, pt *ParticleType, set particles.Set, attrs, offsets attr.Arrays, factors, durations []float32, end float32) {
	if len(pt.Listeners) > 0 {
		iface := &ForwardingInterface{
			set:       set,
			attrs:     attrs,
			offsets:   offsets,
			factors:   factors,
			durations: durations,
			endTime:   end,
			allocator: w.alloc,
			rng:       w.rng,
		}
		for _, l := range pt.Listeners {
			l.Listen(iface)
		}
	}
	schema := offsets.Schema()
	for j := 0; j < schema.Size(); j++ {
		name := schema.Name(j)
		delta := offsets.Float3(name)
		target := attrs.Float3(name)
		for _, i := range set.Indices() {
			target[i] = target[i].Add(delta[i].Scale(factors[i]))
		}
	}
}

// removeKilled swap-removes every row flagged in the kill state attribute.
func (r *stepRun) removeKilled(b *block.Block) {
	kill := b.AllSlice().Byte(AttrKillState)
	removed := 0
	for i := 0; i < b.ActiveCount(); {
		if kill[i] != 0 {
			b.Remove(i)
			removed++
			continue
		}
		i++
	}
	if removed > 0 {
		r.killed.Add(int64(removed))
	}
}
