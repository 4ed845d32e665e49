package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"
	CircuitStateOpen     CircuitState = "OPEN"
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

func (s CircuitState) String() string {
	return string(s)
}

// HealthCheckFunc probes the guarded dependency while the circuit is open.
type HealthCheckFunc func() bool

// CircuitBreaker stops calling a failing provider until it recovers, either
// after the reset timeout or after a passing health check.
type CircuitBreaker struct {
	name                string
	state               CircuitState
	failureCount        int
	failureThreshold    int
	resetTimeout        time.Duration
	nextRetryTime       time.Time
	nextHealthCheckTime time.Time
	healthCheckInterval time.Duration
	isHealthChecking    bool
	healthCheckFn       HealthCheckFunc
	logger              *zap.Logger
	mu                  sync.Mutex
}

func NewCircuitBreaker(
	name string,
	failureThreshold int,
	resetTimeout time.Duration,
	healthCheckInterval time.Duration,
	healthCheckFn HealthCheckFunc,
	logger *zap.Logger,
) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		name:                name,
		state:               CircuitStateClosed,
		failureThreshold:    failureThreshold,
		resetTimeout:        resetTimeout,
		healthCheckInterval: healthCheckInterval,
		healthCheckFn:       healthCheckFn,
		logger:              logger.With(zap.String("breaker", name)),
	}
}

// State returns the current state, moving OPEN to HALF_OPEN once the retry
// time has passed (or kicking off a health check when one is configured).
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateOpen {
		now := time.Now()
		if cb.healthCheckFn != nil {
			if now.After(cb.nextHealthCheckTime) && !cb.isHealthChecking {
				cb.isHealthChecking = true
				go cb.runHealthCheck()
			}
		} else if now.After(cb.nextRetryTime) {
			cb.transitionTo(CircuitStateHalfOpen)
		}
	}

	return cb.state
}

func (cb *CircuitBreaker) CanExecute() bool {
	return cb.State() != CircuitStateOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateHalfOpen {
		cb.logger.Info("Circuit Breaker: provider recovered")
		cb.transitionTo(CircuitStateClosed)
	}
	cb.failureCount = 0
}

// RecordFailure counts a failure; customTimeout overrides the reset timeout
// when positive (rate limits back off longer).
func (cb *CircuitBreaker) RecordFailure(customTimeout time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	timeout := cb.resetTimeout
	if customTimeout > 0 {
		timeout = customTimeout
	}

	cb.logger.Warn("Circuit Breaker: failure recorded",
		zap.Int("count", cb.failureCount),
		zap.Int("threshold", cb.failureThreshold),
		zap.Duration("timeout", timeout),
	)

	if cb.state == CircuitStateHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.nextRetryTime = time.Now().Add(timeout)
		cb.nextHealthCheckTime = time.Now().Add(cb.healthCheckInterval)
		cb.transitionTo(CircuitStateOpen)
	}
}

func (cb *CircuitBreaker) runHealthCheck() {
	cb.logger.Info("Circuit Breaker: running health check")
	healthy := cb.healthCheckFn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.isHealthChecking = false
	if healthy {
		cb.transitionTo(CircuitStateHalfOpen)
		return
	}
	cb.logger.Warn("Circuit Breaker: health check failed")
	cb.nextHealthCheckTime = time.Now().Add(cb.healthCheckInterval)
}

// must be called with mu held
func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	cb.state = newState

	nextRetry := "n/a"
	if newState == CircuitStateOpen {
		nextRetry = cb.nextRetryTime.Format(time.RFC3339)
	}

	cb.logger.Info("Circuit Breaker: state transition",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failure_count", cb.failureCount),
		zap.String("next_retry", nextRetry),
	)
}

func (cb *CircuitBreaker) Status() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := CircuitBreakerStatus{
		Name:         cb.name,
		State:        cb.state,
		FailureCount: cb.failureCount,
	}
	if cb.state == CircuitStateOpen {
		next := cb.nextRetryTime
		status.NextRetryTime = &next
	}
	return status
}

type CircuitBreakerStatus struct {
	Name          string
	State         CircuitState
	FailureCount  int
	NextRetryTime *time.Time
}
