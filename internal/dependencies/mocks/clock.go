package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Tickers it creates only fire when Tick is called.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	tickers     []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// NewTicker creates a manual ticker
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{
		Interval: d,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick fires every live ticker once, blocking until each receiver has taken
// the tick. It returns the number of tickers that received it.
func (c *MockClock) Tick() int {
	c.mu.Lock()
	now := c.currentTime
	tickers := append([]*MockTicker(nil), c.tickers...)
	c.mu.Unlock()

	delivered := 0
	for _, t := range tickers {
		if t.fire(now) {
			delivered++
		}
	}
	return delivered
}

// ActiveTickers returns the number of tickers that have not been stopped
func (c *MockClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.IsStopped() {
			n++
		}
	}
	return n
}

// MockTicker is a ticker driven by MockClock.Tick
type MockTicker struct {
	Interval time.Duration

	ch       chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time { return t.ch }

// Stop stops the ticker; pending and future ticks are dropped
func (t *MockTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// IsStopped reports whether Stop has been called
func (t *MockTicker) IsStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

func (t *MockTicker) fire(now time.Time) bool {
	if t.IsStopped() {
		return false
	}
	select {
	case t.ch <- now:
		return true
	case <-t.stopped:
		return false
	}
}
