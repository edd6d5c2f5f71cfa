package speech

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeTimer records scheduled callbacks so tests can fire them manually.
type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) newTimer(d time.Duration, f func()) timerHandle {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fireLast runs the most recently scheduled live timer.
func (s *fakeScheduler) fireLast(t *testing.T) {
	t.Helper()
	for i := len(s.timers) - 1; i >= 0; i-- {
		if !s.timers[i].stopped {
			timer := s.timers[i]
			timer.stopped = true
			timer.f()
			return
		}
	}
	t.Fatal("no live timer to fire")
}

// fireAll runs every live timer with the given duration.
func (s *fakeScheduler) fire(t *testing.T, d time.Duration) {
	t.Helper()
	for _, timer := range s.timers {
		if !timer.stopped && timer.d == d {
			timer.stopped = true
			timer.f()
		}
	}
}

type fakeRecognizer struct {
	active    bool
	supported bool
	starts    int
	stops     int
	startErr  error
}

func (r *fakeRecognizer) Start() error {
	r.starts++
	if r.startErr != nil {
		return r.startErr
	}
	r.active = true
	return nil
}

func (r *fakeRecognizer) Stop()           { r.stops++; r.active = false }
func (r *fakeRecognizer) Active() bool    { return r.active }
func (r *fakeRecognizer) Supported() bool { return r.supported }

func newTestCapture(t *testing.T) (*Capture, *fakeScheduler, *fakeRecognizer, *[]string, *int) {
	t.Helper()
	sched := &fakeScheduler{}
	rec := &fakeRecognizer{supported: true}

	cap := NewCapture(DefaultCaptureConfig(), rec, nil, zerolog.Nop())
	cap.newTimer = sched.newTimer

	commands := &[]string{}
	wakes := new(int)
	cap.SetHandlers(func() { *wakes++ }, func(cmd string) { *commands = append(*commands, cmd) })

	if err := cap.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return cap, sched, rec, commands, wakes
}

func TestCapture_WakeThenCommand(t *testing.T) {
	cap, sched, _, commands, wakes := newTestCapture(t)

	cap.HandleResult(Result{Text: "hey trade what is an ETF", IsFinal: true})

	if *wakes != 1 {
		t.Fatalf("expected wake to fire once, got %d", *wakes)
	}
	if !cap.InCommandMode() {
		t.Fatal("expected command mode after wake word")
	}

	// Silence elapses: finalize timer dispatches the held transcript.
	sched.fire(t, cap.cfg.FinalizeDelay)

	if len(*commands) != 1 || (*commands)[0] != "what is an ETF" {
		t.Fatalf("expected command 'what is an ETF', got %v", *commands)
	}
	if cap.InCommandMode() {
		t.Error("command mode should exit after dispatch")
	}
}

func TestCapture_WakeWordCaseInsensitive(t *testing.T) {
	cap, _, _, _, wakes := newTestCapture(t)

	cap.HandleResult(Result{Text: "Hey Trade", IsFinal: true})
	if *wakes != 1 {
		t.Errorf("expected wake on mixed case, got %d", *wakes)
	}
}

func TestCapture_NoWakeNoCommand(t *testing.T) {
	cap, _, _, commands, wakes := newTestCapture(t)

	cap.HandleResult(Result{Text: "what is an ETF", IsFinal: true})
	if *wakes != 0 || len(*commands) != 0 {
		t.Error("results without the wake phrase must be ignored")
	}
	if cap.InCommandMode() {
		t.Error("should not enter command mode without wake word")
	}
}

func TestCapture_StopExitsSilently(t *testing.T) {
	cap, _, _, commands, _ := newTestCapture(t)

	cap.HandleResult(Result{Text: "hey trade", IsFinal: true})
	cap.HandleResult(Result{Text: "actually stop", IsFinal: true})

	if cap.InCommandMode() {
		t.Error("stop must exit command mode")
	}
	if len(*commands) != 0 {
		t.Errorf("stop must not dispatch a command, got %v", *commands)
	}
}

func TestCapture_FinalResultHeldThenDispatched(t *testing.T) {
	cap, sched, _, commands, _ := newTestCapture(t)

	cap.HandleResult(Result{Text: "hey trade", IsFinal: true})
	cap.HandleResult(Result{Text: "show my", IsFinal: false})
	cap.HandleResult(Result{Text: "show my portfolio", IsFinal: true})

	sched.fire(t, cap.cfg.FinalizeDelay)

	if len(*commands) != 1 || (*commands)[0] != "show my portfolio" {
		t.Fatalf("expected final transcript dispatched, got %v", *commands)
	}
}

func TestCapture_CommandWindowTimesOutSilently(t *testing.T) {
	cap, sched, _, commands, _ := newTestCapture(t)

	cap.HandleResult(Result{Text: "hey trade", IsFinal: true})
	sched.fire(t, cap.cfg.CommandTimeout)

	if cap.InCommandMode() {
		t.Error("command window timeout must exit command mode")
	}
	if len(*commands) != 0 {
		t.Errorf("timeout with no transcript must dispatch nothing, got %v", *commands)
	}
}

func TestCapture_WakeFiresOnlyOncePerWindow(t *testing.T) {
	cap, _, _, _, wakes := newTestCapture(t)

	cap.HandleResult(Result{Text: "hey trade", IsFinal: true})
	cap.HandleResult(Result{Text: "hey trade again", IsFinal: false})

	if *wakes != 1 {
		t.Errorf("wake must not re-fire while in command mode, got %d", *wakes)
	}
}

func TestCapture_Unsupported(t *testing.T) {
	cap := NewCapture(DefaultCaptureConfig(), NullRecognizer{}, nil, zerolog.Nop())
	var wakes int
	cap.SetHandlers(func() { wakes++ }, func(string) {})

	if cap.Supported() {
		t.Error("null recognizer must report unsupported")
	}
	if err := cap.Start(); err != nil {
		t.Fatalf("start on unsupported must not fail: %v", err)
	}

	cap.HandleResult(Result{Text: "hey trade", IsFinal: true})
	if wakes != 0 {
		t.Error("unsupported capture must never emit wake events")
	}
}

func TestCapture_WatchdogRestartsInactiveRecognizer(t *testing.T) {
	cap, sched, rec, _, _ := newTestCapture(t)

	rec.active = false
	sched.fire(t, cap.cfg.WatchdogInterval) // watchdog sees inactive, stops
	if rec.stops == 0 {
		t.Fatal("watchdog should stop an inactive recognizer")
	}

	sched.fire(t, cap.cfg.RestartDelay) // delayed restart
	if rec.starts < 2 {
		t.Errorf("expected restart after delay, starts=%d", rec.starts)
	}
	if !rec.active {
		t.Error("recognizer should be active again after restart")
	}
}

func TestCapture_DisposeCancelsTimers(t *testing.T) {
	cap, sched, rec, commands, _ := newTestCapture(t)

	cap.HandleResult(Result{Text: "hey trade balance please", IsFinal: true})
	cap.Dispose()

	for _, timer := range sched.timers {
		if !timer.stopped {
			t.Error("dispose must stop all timers")
		}
	}
	if rec.stops == 0 {
		t.Error("dispose must stop the recognizer")
	}
	if len(*commands) != 0 {
		t.Error("dispose must not dispatch held transcripts")
	}
}
