package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerRejectsWithinWindow(t *testing.T) {
	d := NewDebouncer(Options{})
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, d.AllowAt("10.0.0.1", t0))
	assert.False(t, d.AllowAt("10.0.0.1", t0.Add(100*time.Millisecond)))
	assert.False(t, d.AllowAt("10.0.0.1", t0.Add(299*time.Millisecond)))
	assert.True(t, d.AllowAt("10.0.0.1", t0.Add(350*time.Millisecond)))
}

func TestDebouncerRejectedCallsDoNotExtendWindow(t *testing.T) {
	d := NewDebouncer(Options{})
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, d.AllowAt("origin", t0))
	assert.False(t, d.AllowAt("origin", t0.Add(200*time.Millisecond)))
	// Measured from the accepted call, not from the rejected one.
	assert.True(t, d.AllowAt("origin", t0.Add(320*time.Millisecond)))
}

func TestDebouncerOriginsAreIndependent(t *testing.T) {
	d := NewDebouncer(Options{})
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, d.AllowAt("a", t0))
	assert.True(t, d.AllowAt("b", t0.Add(10*time.Millisecond)))
	assert.False(t, d.AllowAt("a", t0.Add(20*time.Millisecond)))
}

func TestDebouncerIsBounded(t *testing.T) {
	d := NewDebouncer(Options{MaxOrigins: 3})
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		d.AllowAt(fmt.Sprintf("origin-%d", i), t0)
	}
	assert.Equal(t, 3, d.Tracked())
}

func TestDebouncerDefaults(t *testing.T) {
	d := NewDebouncer(Options{Retention: time.Millisecond})
	assert.Equal(t, DefaultWindow, d.Window())
}

func TestDebouncerConcurrentSameOrigin(t *testing.T) {
	d := NewDebouncer(Options{Window: time.Hour})
	t0 := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.AllowAt("same", t0) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, allowed)
}
