// Copyright 2026 Nyx Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package llm

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState is the current state of the breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // normal operation
	CircuitOpen                         // failing, reject immediately
	CircuitHalfOpen                     // cooldown elapsed, probing
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig defines circuit breaker behavior.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures to open (default 5)
	Cooldown         time.Duration // open duration before half-open probe (default 300s)
	Logger           *zap.Logger
}

// DefaultBreakerConfig returns the defaults from the call-path contract.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         300 * time.Second,
	}
}

// CircuitBreaker fails LLM calls fast after a run of consecutive
// failures. State is process-global (one breaker per client) and all
// transitions are serialized under the mutex.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	lastFailureTime time.Time
	config          BreakerConfig
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 300 * time.Second
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &CircuitBreaker{state: CircuitClosed, config: config}
}

// Allow reports whether a call may proceed. While open it returns a
// circuit_open error carrying the remaining cooldown; once the cooldown
// elapses the breaker moves to half-open and admits a probe.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return nil
	case CircuitOpen:
		elapsed := time.Since(cb.lastFailureTime)
		if elapsed >= cb.config.Cooldown {
			cb.state = CircuitHalfOpen
			cb.config.Logger.Info("circuit breaker half-open",
				zap.Duration("cooldown", cb.config.Cooldown),
				zap.Duration("elapsed", elapsed))
			return nil
		}
		remaining := cb.config.Cooldown - elapsed
		return &Error{
			Kind:    ErrCircuitOpen,
			Message: "circuit breaker open, retry after " + remaining.Truncate(time.Second).String(),
		}
	}
	return nil
}

// RecordSuccess resets the failure streak and closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitClosed {
		cb.config.Logger.Info("circuit breaker closed",
			zap.String("from", cb.state.String()))
	}
	cb.state = CircuitClosed
	cb.failureCount = 0
}

// RecordFailure counts a failure; at the threshold the breaker opens. A
// failed half-open probe reopens immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.state == CircuitHalfOpen || cb.failureCount >= cb.config.FailureThreshold {
		if cb.state != CircuitOpen {
			cb.config.Logger.Warn("circuit breaker opened",
				zap.Int("consecutive_failures", cb.failureCount),
				zap.Duration("cooldown", cb.config.Cooldown))
		}
		cb.state = CircuitOpen
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the current consecutive-failure streak.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}
