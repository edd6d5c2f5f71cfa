// Package speech turns a stream of speech-recognition results into wake
// events and command transcripts for the assistant pipeline.
package speech

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Result is one recognition result from the capture source. Interim results
// carry partial text with IsFinal unset.
type Result struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// Recognizer models the liveness of the underlying capture source. Results
// themselves arrive through Capture.HandleResult; the recognizer is what the
// watchdog starts, stops, and restarts.
type Recognizer interface {
	Start() error
	Stop()
	Active() bool
	Supported() bool
}

// NullRecognizer is the degraded recognizer used when speech capture is not
// available. It never becomes active and reports unsupported, so callers
// fall back to manual text input.
type NullRecognizer struct{}

func (NullRecognizer) Start() error    { return nil }
func (NullRecognizer) Stop()           {}
func (NullRecognizer) Active() bool    { return false }
func (NullRecognizer) Supported() bool { return false }

// CaptureConfig holds the wake-word capture tunables.
type CaptureConfig struct {
	WakePhrase       string        // default "hey trade"
	CommandTimeout   time.Duration // idle limit for the whole command window
	FinalizeDelay    time.Duration // silence after a final result before dispatch
	InterimExtension time.Duration // exit-timer extension while speech is arriving
	WatchdogInterval time.Duration
	RestartDelay     time.Duration // pause between stop and start on restart
	ReinitBackoff    time.Duration // backoff before full reinitialization
}

// DefaultCaptureConfig returns the standard timings.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		WakePhrase:       "hey trade",
		CommandTimeout:   10 * time.Second,
		FinalizeDelay:    1500 * time.Millisecond,
		InterimExtension: 3 * time.Second,
		WatchdogInterval: 15 * time.Second,
		RestartDelay:     500 * time.Millisecond,
		ReinitBackoff:    2 * time.Second,
	}
}

// timerHandle lets a scheduled callback be canceled.
type timerHandle interface {
	Stop() bool
}

// timerFactory schedules a callback after a delay. Production uses
// time.AfterFunc; tests substitute a manual scheduler.
type timerFactory func(d time.Duration, f func()) timerHandle

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

func afterFunc(d time.Duration, f func()) timerHandle {
	return realTimer{t: time.AfterFunc(d, f)}
}

// Capture is the wake-word + command state machine. All timers are owned by
// the Capture and torn down by Dispose, so sessions do not leak timers into
// each other.
type Capture struct {
	mu sync.Mutex

	cfg        CaptureConfig
	recognizer Recognizer
	reinit     func() Recognizer
	logger     zerolog.Logger

	onWake    func()
	onCommand func(transcript string)

	inCommand bool
	held      string

	commandTimer  timerHandle
	finalizeTimer timerHandle
	watchdogTimer timerHandle

	wantActive    bool
	restartFailed bool
	disposed      bool

	newTimer timerFactory
}

// NewCapture creates a capture over the given recognizer. reinit is invoked
// for full reinitialization after repeated restart failure; it may be nil,
// in which case the existing recognizer is reused.
func NewCapture(cfg CaptureConfig, rec Recognizer, reinit func() Recognizer, logger zerolog.Logger) *Capture {
	def := DefaultCaptureConfig()
	if cfg.WakePhrase == "" {
		cfg.WakePhrase = def.WakePhrase
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if cfg.FinalizeDelay <= 0 {
		cfg.FinalizeDelay = def.FinalizeDelay
	}
	if cfg.InterimExtension <= 0 {
		cfg.InterimExtension = def.InterimExtension
	}
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = def.WatchdogInterval
	}
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = def.RestartDelay
	}
	if cfg.ReinitBackoff <= 0 {
		cfg.ReinitBackoff = def.ReinitBackoff
	}

	return &Capture{
		cfg:        cfg,
		recognizer: rec,
		reinit:     reinit,
		logger:     logger.With().Str("component", "speech-capture").Logger(),
		newTimer:   afterFunc,
	}
}

// SetHandlers registers the wake and command callbacks. Must be called
// before Start.
func (c *Capture) SetHandlers(onWake func(), onCommand func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWake = onWake
	c.onCommand = onCommand
}

// Supported reports whether the underlying capture source exists.
func (c *Capture) Supported() bool {
	return c.recognizer != nil && c.recognizer.Supported()
}

// Start begins capture and arms the watchdog. On an unsupported recognizer
// it is a no-op.
func (c *Capture) Start() error {
	if !c.Supported() {
		c.logger.Warn().Msg("speech capture unsupported, voice input disabled")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.wantActive = true
	if err := c.recognizer.Start(); err != nil {
		return err
	}
	c.armWatchdogLocked()
	return nil
}

// Dispose stops capture and cancels every timer. The capture cannot be
// reused afterwards.
func (c *Capture) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposed = true
	c.wantActive = false
	c.stopTimerLocked(&c.commandTimer)
	c.stopTimerLocked(&c.finalizeTimer)
	c.stopTimerLocked(&c.watchdogTimer)
	if c.recognizer != nil {
		c.recognizer.Stop()
	}
	c.inCommand = false
	c.held = ""
}

// InCommandMode reports whether a wake word has been detected and a command
// is being captured.
func (c *Capture) InCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inCommand
}

// HandleResult feeds one recognition result into the state machine.
// Unsupported or disposed captures ignore everything.
func (c *Capture) HandleResult(r Result) {
	if !c.Supported() {
		return
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}

	lower := strings.ToLower(r.Text)

	if !c.inCommand {
		idx := strings.Index(lower, c.cfg.WakePhrase)
		if idx < 0 {
			c.mu.Unlock()
			return
		}
		c.inCommand = true
		c.held = ""
		c.restartCommandTimerLocked()

		// Speech trailing the wake phrase in the same result seeds the
		// command transcript.
		remainder := strings.TrimSpace(r.Text[idx+len(c.cfg.WakePhrase):])
		if remainder != "" && r.IsFinal {
			c.held = remainder
			c.restartFinalizeTimerLocked(c.cfg.FinalizeDelay)
		} else if remainder != "" {
			c.restartFinalizeTimerLocked(c.cfg.InterimExtension)
		}
		onWake := c.onWake
		c.mu.Unlock()
		if onWake != nil {
			onWake()
		}
		return
	}

	// Command mode.
	if strings.Contains(lower, "stop") || strings.Contains(lower, "cancel") {
		c.exitCommandLocked()
		c.mu.Unlock()
		return
	}

	if r.IsFinal {
		c.held = strings.TrimSpace(r.Text)
		c.restartFinalizeTimerLocked(c.cfg.FinalizeDelay)
	} else {
		c.restartFinalizeTimerLocked(c.cfg.InterimExtension)
	}
	c.mu.Unlock()
}

// finalize fires when the silence window elapses: exits command mode and
// emits the held transcript, if any.
func (c *Capture) finalize() {
	c.mu.Lock()
	if c.disposed || !c.inCommand {
		c.mu.Unlock()
		return
	}
	transcript := c.held
	c.exitCommandLocked()
	onCommand := c.onCommand
	c.mu.Unlock()

	if transcript != "" && onCommand != nil {
		onCommand(transcript)
	}
}

// commandTimedOut fires when the 10 s command window elapses with nothing
// dispatched.
func (c *Capture) commandTimedOut() {
	c.mu.Lock()
	if c.disposed || !c.inCommand {
		c.mu.Unlock()
		return
	}
	c.logger.Debug().Msg("command window timed out")
	c.exitCommandLocked()
	c.mu.Unlock()
}

func (c *Capture) exitCommandLocked() {
	c.inCommand = false
	c.held = ""
	c.stopTimerLocked(&c.commandTimer)
	c.stopTimerLocked(&c.finalizeTimer)
}

func (c *Capture) restartCommandTimerLocked() {
	c.stopTimerLocked(&c.commandTimer)
	c.commandTimer = c.newTimer(c.cfg.CommandTimeout, c.commandTimedOut)
}

func (c *Capture) restartFinalizeTimerLocked(d time.Duration) {
	c.stopTimerLocked(&c.finalizeTimer)
	c.finalizeTimer = c.newTimer(d, c.finalize)
}

func (c *Capture) stopTimerLocked(t *timerHandle) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// armWatchdogLocked schedules the next liveness check.
func (c *Capture) armWatchdogLocked() {
	c.stopTimerLocked(&c.watchdogTimer)
	c.watchdogTimer = c.newTimer(c.cfg.WatchdogInterval, c.watchdogCheck)
}

// watchdogCheck restarts the recognizer if it went quiet while capture is
// supposed to be running. A restart that fails twice in a row escalates to
// full reinitialization after a backoff.
func (c *Capture) watchdogCheck() {
	c.mu.Lock()
	if c.disposed || !c.wantActive {
		c.mu.Unlock()
		return
	}

	if c.recognizer.Active() {
		c.restartFailed = false
		c.armWatchdogLocked()
		c.mu.Unlock()
		return
	}

	c.logger.Warn().Msg("recognizer inactive, restarting")
	c.recognizer.Stop()
	c.mu.Unlock()

	c.newTimer(c.cfg.RestartDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.disposed || !c.wantActive {
			return
		}

		if err := c.recognizer.Start(); err != nil || !c.recognizer.Active() {
			if c.restartFailed {
				c.scheduleReinitLocked()
				return
			}
			c.restartFailed = true
		} else {
			c.restartFailed = false
		}
		c.armWatchdogLocked()
	})
}

func (c *Capture) scheduleReinitLocked() {
	c.logger.Warn().Msg("restart failed twice, reinitializing recognizer")
	c.newTimer(c.cfg.ReinitBackoff, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.disposed || !c.wantActive {
			return
		}
		if c.reinit != nil {
			c.recognizer = c.reinit()
		}
		c.restartFailed = false
		if err := c.recognizer.Start(); err != nil {
			c.logger.Error().Err(err).Msg("recognizer reinitialization failed")
		}
		c.armWatchdogLocked()
	})
}
