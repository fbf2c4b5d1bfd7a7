package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("safeguard", WithFailureThreshold(3))

	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{Opened: true}, b.RecordFailure())
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	b := New("safeguard", WithFailureThreshold(2))
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenProbe(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("safeguard", WithFailureThreshold(1), WithCooldown(10*time.Second), WithClock(clock.now))

	b.RecordFailure()
	assert.False(t, b.Allow(), "cooldown not elapsed")

	clock.advance(10 * time.Second)
	assert.True(t, b.Allow(), "first probe admitted")
	assert.Equal(t, StateHalfOpen, b.State())
	assert.False(t, b.Allow(), "only one probe in flight")

	t.Run("probe failure reopens", func(t *testing.T) {
		assert.Equal(t, StateChange{Opened: true}, b.RecordFailure())
		assert.False(t, b.Allow())
	})

	t.Run("probe success closes", func(t *testing.T) {
		clock.advance(10 * time.Second)
		assert.True(t, b.Allow())
		assert.Equal(t, StateChange{Closed: true}, b.RecordSuccess())
		assert.Equal(t, StateClosed, b.State())
		assert.True(t, b.Allow())
	})
}

func TestSuccessThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	b := New("safeguard", WithFailureThreshold(1), WithSuccessThreshold(2), WithCooldown(time.Second), WithClock(clock.now))
	b.RecordFailure()
	clock.advance(time.Second)

	assert.True(t, b.Allow())
	assert.Equal(t, StateChange{}, b.RecordSuccess())
	assert.Equal(t, StateHalfOpen, b.State())
	assert.True(t, b.Allow())
	assert.Equal(t, StateChange{Closed: true}, b.RecordSuccess())
}

func TestResetAndString(t *testing.T) {
	b := New("safeguard", WithFailureThreshold(1))
	b.RecordFailure()
	assert.Equal(t, "open", b.State().String())
	b.Reset()
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "safeguard", b.Name())
	assert.Equal(t, "half_open", StateHalfOpen.String())
}
