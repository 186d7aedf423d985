package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StepsOnEachReading(t *testing.T) {
	clock := NewFakeClock(time.Second)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Peek())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Peek(), "peek does not advance")
}

func TestFakeClock_ZeroStepIsFrozen(t *testing.T) {
	clock := NewFakeClock(0)
	assert.Equal(t, clock.Now(), clock.Now())

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, Epoch.Add(500*time.Millisecond), clock.Now())

	later := Epoch.Add(time.Hour)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestFakeClock_ConcurrentAccess(t *testing.T) {
	clock := NewFakeClock(time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(100*time.Millisecond), clock.Peek())
}
