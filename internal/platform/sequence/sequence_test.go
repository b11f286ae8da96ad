package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroValueStartsAtOne(t *testing.T) {
	var c Counter
	assert.Equal(t, uint64(1), c.Next())
	assert.Equal(t, uint64(2), c.Next())
	assert.Equal(t, uint64(2), c.Current())
}

func TestResumeFromPersistedValue(t *testing.T) {
	c := NewCounter(100)
	assert.Equal(t, uint64(100), c.Current())
	assert.Equal(t, uint64(101), c.Next())
}

func TestConcurrentNextIsStrictlyIncreasing(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 100

	c := NewCounter(0)
	seen := make(chan uint64, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				seen <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool, goroutines*perGoroutine)
	for v := range seen {
		assert.False(t, unique[v], "sequence value %d issued twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, goroutines*perGoroutine)
	assert.Equal(t, uint64(goroutines*perGoroutine), c.Current())
}
