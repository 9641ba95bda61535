package stream

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/experiment"
)

const (
	DefaultInterval  = time.Second / 30
	DefaultMaxPoints = 5000
	maxSpeed         = 16
)

// Server steps an experiment on a fixed wall clock interval and streams
// every step to the hub.
type Server struct {
	Interval  time.Duration
	MaxPoints int

	exp      *experiment.Experiment
	hub      *Hub
	gatherer prometheus.Gatherer
	log      *logrus.Entry

	paused atomic.Bool
	speed  atomic.Uint64

	mu     sync.RWMutex
	last   Frame
	points []attr.Float3
}

// NewServer wraps an experiment that has already been set up. gatherer
// backs the /metrics endpoint and may be nil.
func NewServer(exp *experiment.Experiment, gatherer prometheus.Gatherer, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.WithField("component", "server")
	}
	s := &Server{
		Interval:  DefaultInterval,
		MaxPoints: DefaultMaxPoints,
		exp:       exp,
		hub:       NewHub(log.WithField("component", "hub")),
		gatherer:  gatherer,
		log:       log,
	}
	s.SetSpeed(1)
	s.hub.Welcome = func() any { return s.Last() }
	s.hub.OnControl = s.apply
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Paused() bool     { return s.paused.Load() }
func (s *Server) SetPaused(p bool) { s.paused.Store(p) }
func (s *Server) Speed() float64   { return math.Float64frombits(s.speed.Load()) }

func (s *Server) SetSpeed(f float64) {
	f = math.Max(0, math.Min(maxSpeed, f))
	s.speed.Store(math.Float64bits(f))
}

func (s *Server) apply(c Control) {
	if c.Paused != nil {
		s.SetPaused(*c.Paused)
	}
	if c.Speed != nil {
		s.SetSpeed(*c.Speed)
	}
	s.log.WithFields(logrus.Fields{"paused": s.Paused(), "speed": s.Speed()}).Debug("control applied")
}

// Last returns the most recently broadcast frame.
func (s *Server) Last() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Step advances the simulation once and broadcasts the result.
func (s *Server) Step() error {
	sim := s.exp.Simulation()
	dt := float32(s.exp.Config().Dt * s.Speed())
	stats := sim.Step(dt)

	if n := sim.ParticleCount(); cap(s.points) < n {
		s.points = make([]attr.Float3, n)
	} else {
		s.points = s.points[:n]
	}
	s.points = s.points[:sim.Positions(s.points)]
	frame := NewFrame(stats, s.points, s.MaxPoints)

	s.mu.Lock()
	s.last = frame
	s.mu.Unlock()
	return s.hub.Broadcast(frame)
}

// Run steps until ctx is done. Paused servers keep their clients but do not
// advance.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	defer s.hub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Paused() {
				continue
			}
			if err := s.Step(); err != nil {
				return err
			}
		}
	}
}

// Handler routes /ws, /stats, /metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		f := s.Last()
		f.Positions = nil
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// ListenAndServe serves Handler on addr and runs the step loop until ctx is
// done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.WithField("addr", addr).Info("serving")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return s.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
