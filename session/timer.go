package session

import "time"

// StartDuelTimer sets the remaining time to whole seconds of d and counts it
// down once per tick until zero. A running countdown is stopped first.
func (s *Session) StartDuelTimer(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTimerLocked(d)
}

// StopDuelTimer stops the countdown and zeroes the remaining time. Safe to call repeatedly.
func (s *Session) StopDuelTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// TimeRemaining returns the countdown's remaining seconds
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemaining
}

func (s *Session) startTimerLocked(d time.Duration) {
	s.stopTimerLocked()

	s.timeRemaining = int(d / time.Second)
	if s.timeRemaining <= 0 {
		s.timeRemaining = 0
		return
	}

	stop := make(chan struct{})
	s.timerStop = stop
	s.activeTimers.Add(1)
	go s.runCountdown(stop)
}

func (s *Session) stopTimerLocked() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
	s.timeRemaining = 0
}

func (s *Session) runCountdown(stop chan struct{}) {
	defer s.activeTimers.Add(-1)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.timerStop != stop {
			// Superseded between the tick and the lock
			s.mu.Unlock()
			return
		}
		if s.timeRemaining > 0 {
			s.timeRemaining--
		}
		if s.timeRemaining == 0 {
			s.timerStop = nil
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}
