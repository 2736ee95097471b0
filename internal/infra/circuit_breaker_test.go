package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_AbreTrasFallasConsecutivas(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})
	boom := errors.New("sidecar caido")

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(func() error { return boom }))
	}
	assert.Equal(t, CBOpen, cb.State())

	// Abierto: fast-fail sin ejecutar fn.
	executed := false
	err := cb.Execute(func() error { executed = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, executed)
}

func TestCircuitBreaker_RecuperaViaHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(func() error { return errors.New("falla") }))
	assert.Equal(t, CBOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	// Dos sondas exitosas cierran el circuito.
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_SondaFallidaReabre(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(func() error { return errors.New("falla") }))
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.Error(t, cb.Execute(func() error { return errors.New("sigue caido") }))
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_ExitoResetea(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCBConfig())

	// Dos fallas seguidas, luego un exito: el contador vuelve a cero y el
	// circuito sigue cerrado.
	_ = cb.Execute(func() error { return errors.New("falla") })
	_ = cb.Execute(func() error { return errors.New("falla") })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errors.New("falla") })
	_ = cb.Execute(func() error { return errors.New("falla") })
	assert.Equal(t, CBClosed, cb.State())
}
