package stream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/sim"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewFrame(t *testing.T) {
	stats := sim.StepStats{
		Step: 3, Start: 1, Duration: 0.5, Emitted: 4, Killed: 1,
		Elapsed: 1500 * time.Microsecond,
		Kinds:   []sim.KindStats{{Kind: "a", Particles: 2}, {Kind: "b", Particles: 3}},
	}
	pos := []attr.Float3{{X: 1}, {X: 2}, {X: 3}, {X: 4}, {X: 5}}

	f := NewFrame(stats, pos, 0)
	assert.Equal(t, 3, f.Step)
	assert.Equal(t, float32(1.5), f.Time)
	assert.Equal(t, 5, f.Particles)
	assert.Equal(t, 1.5, f.StepMs)
	assert.Equal(t, map[string]int{"a": 2, "b": 3}, f.Kinds)
	assert.Len(t, f.Positions, 5)
	assert.False(t, f.Sampled)

	f = NewFrame(stats, pos, 2)
	assert.True(t, f.Sampled)
	assert.Equal(t, [][3]float32{{1, 0, 0}, {4, 0, 0}}, f.Positions)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(quietLogger())
	hub.Welcome = func() any { return map[string]string{"hello": "world"} }
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "/")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	var hello map[string]string
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "world", hello["hello"])

	require.NoError(t, hub.Broadcast(Frame{Step: 7}))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, 7, f.Step)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubControl(t *testing.T) {
	got := make(chan Control, 1)
	hub := NewHub(quietLogger())
	hub.OnControl = func(c Control) { got <- c }
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "/")
	require.NoError(t, conn.WriteJSON(map[string]any{"paused": true}))
	select {
	case c := <-got:
		require.NotNil(t, c.Paused)
		assert.True(t, *c.Paused)
		assert.Nil(t, c.Speed)
	case <-time.After(time.Second):
		t.Fatal("control message not received")
	}
}

func newServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	exp := experiment.New(config.GetPreset("fountain"), quietLogger())
	require.NoError(t, exp.Setup(metrics.NewCollector(reg)))
	return NewServer(exp, reg, quietLogger()), reg
}

func TestServerStepBroadcasts(t *testing.T) {
	s, _ := newServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "/ws")
	var welcome Frame
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Zero(t, welcome.Particles)

	require.NoError(t, s.Step())
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Zero(t, f.Step)
	assert.Positive(t, f.Particles)
	assert.InDelta(t, 0.02, f.Time, 1e-6)
	assert.Len(t, f.Positions, f.Particles)
	assert.Equal(t, f, s.Last())
}

func TestServerControl(t *testing.T) {
	s, _ := newServer(t)
	paused := true
	speed := 100.0
	s.apply(Control{Paused: &paused, Speed: &speed})
	assert.True(t, s.Paused())
	assert.Equal(t, float64(maxSpeed), s.Speed())

	speed = 0.5
	s.apply(Control{Speed: &speed})
	assert.True(t, s.Paused())
	assert.Equal(t, 0.5, s.Speed())
}

func TestServerEndpoints(t *testing.T) {
	s, _ := newServer(t)
	require.NoError(t, s.Step())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	var f Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	resp.Body.Close()
	assert.Positive(t, f.Particles)
	assert.Empty(t, f.Positions)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "particlesim_steps_total 1")
}

func TestServerRunStopsOnCancel(t *testing.T) {
	s, _ := newServer(t)
	s.Interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Last().Step >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
