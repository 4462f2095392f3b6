package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())

	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 2})

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New(Config{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	})

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)

	// First probe after the timeout is allowed and moves to half-open.
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	b.RecordSuccess()

	require.NoError(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{
		Name:             "test",
		FailureThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, b.Allow())
	b.RecordFailure()

	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerHalfOpenProbeBudget(t *testing.T) {
	b := New(Config{
		Name:                "test",
		FailureThreshold:    1,
		Timeout:             10 * time.Millisecond,
		MaxHalfOpenRequests: 1,
	})

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, b.Allow())
	assert.ErrorIs(t, b.Allow(), ErrTooManyRequests)
}

func TestBreakerReset(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1})

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New(Config{
		Name:             "leetcode",
		FailureThreshold: 1,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	b.RecordFailure()
	b.Reset()

	assert.Equal(t, []string{"leetcode:closed->open", "leetcode:open->closed"}, transitions)
}
