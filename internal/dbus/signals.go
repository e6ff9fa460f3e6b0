package dbus

import (
	"fmt"
	"sync"
	"time"
)

// DefaultSignalInterval is the minimum time between ScalesChanged signals.
const DefaultSignalInterval = 50 * time.Millisecond

// NotifyScalesChanged queues a ScalesChanged signal. Signals are rate
// limited; the most recent scales are always delivered.
func (s *ControlServer) NotifyScalesChanged(scales []float64) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		return
	}
	s.scales.Submit(scales)
}

// emitScalesChanged emits the ScalesChanged signal.
func (s *ControlServer) emitScalesChanged(scales []float64) {
	if err := s.EmitScalesChanged(scales); err != nil {
		s.logger.Warn("failed to emit ScalesChanged signal", "error", err)
	}
}

// EmitScalesChanged emits the ScalesChanged signal immediately.
func (s *ControlServer) EmitScalesChanged(scales []float64) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(DBusPath, DBusInterface+".ScalesChanged", scales); err != nil {
		return fmt.Errorf("failed to emit ScalesChanged signal: %w", err)
	}
	return nil
}

// throttle delivers at most one value per interval. Values submitted
// inside the interval replace each other and the last one is sent when the
// interval ends.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	send     func([]float64)
	now      func() time.Time

	last    time.Time
	pending []float64
	timer   *time.Timer
}

func newThrottle(interval time.Duration, send func([]float64)) *throttle {
	return &throttle{
		interval: interval,
		send:     send,
		now:      time.Now,
	}
}

// Submit queues v for delivery.
func (t *throttle) Submit(v []float64) {
	t.mu.Lock()
	t.pending = append([]float64(nil), v...)
	if t.timer != nil {
		t.mu.Unlock()
		return
	}

	wait := t.interval - t.now().Sub(t.last)
	if wait > 0 {
		t.timer = time.AfterFunc(wait, t.flush)
		t.mu.Unlock()
		return
	}

	out := t.pending
	t.pending = nil
	t.last = t.now()
	t.mu.Unlock()
	t.send(out)
}

func (t *throttle) flush() {
	t.mu.Lock()
	out := t.pending
	t.pending = nil
	t.timer = nil
	t.last = t.now()
	t.mu.Unlock()

	if out != nil {
		t.send(out)
	}
}

// Stop drops any pending value.
func (t *throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = nil
}
