package sim

import (
	"log"
	"sync"
)

// IntervalEvent is a generic event that recurring activities use to wake up
// on a fixed simulated-time cadence.
type IntervalEvent struct {
	EventBase
}

// MakeIntervalEvent creates a new IntervalEvent
func MakeIntervalEvent(handler Handler, time VTimeInSec) IntervalEvent {
	evt := IntervalEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// An IntervalScheduler repeatedly schedules an event with a fixed
// simulated-time period until it is cancelled.
type IntervalScheduler struct {
	lock    sync.Mutex
	handler Handler
	engine  Engine
	period  VTimeInSec

	cancelled    bool
	nextFireTime VTimeInSec
}

// NewIntervalScheduler creates a scheduler that fires every period seconds.
func NewIntervalScheduler(
	handler Handler,
	engine Engine,
	period VTimeInSec,
) *IntervalScheduler {
	if period <= 0 {
		log.Panic("interval period must be positive")
	}

	s := new(IntervalScheduler)

	s.handler = handler
	s.engine = engine
	s.period = period
	s.nextFireTime = -1

	return s
}

// Period returns the simulated-time distance between two firings.
func (s *IntervalScheduler) Period() VTimeInSec {
	return s.period
}

// Start schedules the first firing one period after the current time.
func (s *IntervalScheduler) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.cancelled = false
	s.scheduleNext()
}

// ScheduleNext schedules the next firing. It is a no-op if the scheduler
// has been cancelled, so an in-flight event observed after Cancel dies out
// without rescheduling.
func (s *IntervalScheduler) ScheduleNext() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.cancelled {
		return
	}

	s.scheduleNext()
}

func (s *IntervalScheduler) scheduleNext() {
	time := s.engine.CurrentTime() + s.period

	if s.nextFireTime >= time {
		return
	}

	s.nextFireTime = time
	evt := MakeIntervalEvent(s.handler, time)
	s.engine.Schedule(evt)
}

// Cancel stops all future firings. Events already in the engine queue are
// ignored by their handler through IsCancelled.
func (s *IntervalScheduler) Cancel() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.cancelled = true
}

// IsCancelled returns true if the scheduler was cancelled.
func (s *IntervalScheduler) IsCancelled() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.cancelled
}
