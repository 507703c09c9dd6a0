package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerFiresAfterQuietPeriod(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	d.Touch()
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDebouncerTouchResetsCountdown(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(100*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	d.Touch()
	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		d.Touch()
		assert.Equal(t, int32(0), fired.Load(), "must not fire while activity continues")
	}

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDebouncerBurstCoalesces(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Touch()
	}
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "a burst fires exactly once")
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fired.Add(1) })

	d.Touch()
	d.Stop()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	// Touch after Stop is a no-op.
	d.Touch()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestDebouncerNoFireWithoutTouch(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "countdown starts with the first Touch")
}
