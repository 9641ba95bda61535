package compute

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_VisitsEveryIndexOnce(t *testing.T) {
	p := NewPool(4)
	counts := make([]int32, 1000)

	err := p.ForEach(context.Background(), len(counts), func(_, i int) error {
		atomic.AddInt32(&counts[i], 1)
		return nil
	})

	require.NoError(t, err)
	for i, c := range counts {
		assert.Equal(t, int32(1), c, "index %d", i)
	}
}

func TestPool_WorkerSlotsAreExclusive(t *testing.T) {
	p := NewPool(3)
	var mu sync.Mutex
	busy := make([]bool, p.Workers())

	err := p.ForEach(context.Background(), 200, func(w, _ int) error {
		mu.Lock()
		if busy[w] {
			mu.Unlock()
			return errors.New("worker slot reused concurrently")
		}
		busy[w] = true
		mu.Unlock()

		mu.Lock()
		busy[w] = false
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
}

func TestPool_PropagatesError(t *testing.T) {
	p := NewPool(4)
	boom := errors.New("boom")

	err := p.ForEach(context.Background(), 100, func(_, i int) error {
		if i == 10 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestPool_SerialAndEmpty(t *testing.T) {
	p := NewPool(1)
	var order []int
	require.NoError(t, p.ForEach(context.Background(), 5, func(w, i int) error {
		assert.Equal(t, 0, w)
		order = append(order, i)
		return nil
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.NoError(t, p.ForEach(context.Background(), 0, nil))
	assert.Positive(t, NewPool(0).Workers())
}
