// Package avatar drives the assistant's animated face: emotion presets,
// status-driven idle behavior, lip-sync, and the per-frame procedural
// motion the renderer consumes.
package avatar

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EmotionOptions tune a SetEmotion call. Zero values take the defaults
// noted on each field.
type EmotionOptions struct {
	Intensity     float32       // preset scale, default 1
	Duration      time.Duration // >0 schedules a return to neutral
	BlendDuration time.Duration // transition time, default 300ms
}

// textEmotionRules map keyword groups to emotions. Rules are evaluated top
// to bottom and the first match wins.
var textEmotionRules = []struct {
	emotion  Emotion
	keywords []string
}{
	{EmotionHappy, []string{"excellent", "great", "profit", "gains", "congratulations"}},
	{EmotionConfident, []string{"recommend", "suggest", "advise", "here's the plan"}},
	{EmotionThinking, []string{"analyze", "consider", "think", "let me look"}},
	{EmotionConcerned, []string{"crash", "recession", "bear market", "losses", "warning"}},
	{EmotionSurprised, []string{"breaking news", "unexpected", "surprising", "wow"}},
}

type timerHandle interface {
	Stop() bool
}

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

type timerFactory func(d time.Duration, f func()) timerHandle

func afterFunc(d time.Duration, f func()) timerHandle {
	return realTimer{t: time.AfterFunc(d, f)}
}

// Controller owns the avatar's emotion and status state and computes the
// blendshape weights for every rendered frame. One controller per session;
// Dispose tears down its timers.
type Controller struct {
	mu sync.Mutex

	emotion   Emotion
	status    Status
	intensity float32

	current Weights // smoothed toward target every Update
	target  Weights
	blend   float32 // seconds remaining in the active transition
	blendIn float32 // full transition length

	lipLevel float32
	elapsed  float32

	resetTimer timerHandle
	idleTimer  timerHandle

	eyes *eyeRig
	rng  *rand.Rand

	newTimer timerFactory
	logger   zerolog.Logger
}

// NewController creates a controller in the neutral, idle state. The idle
// micro-expression generator starts immediately because the initial status
// is idle.
func NewController(logger zerolog.Logger) *Controller {
	return newController(logger, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewControllerSeeded fixes the random source, for tests.
func NewControllerSeeded(logger zerolog.Logger, seed int64) *Controller {
	return newController(logger, rand.New(rand.NewSource(seed)))
}

func newController(logger zerolog.Logger, rng *rand.Rand) *Controller {
	c := &Controller{
		emotion:   EmotionNeutral,
		status:    StatusIdle,
		intensity: 1,
		eyes:      newEyeRig(rng),
		rng:       rng,
		newTimer:  afterFunc,
		logger:    logger.With().Str("component", "avatar").Logger(),
	}
	c.mu.Lock()
	c.armIdleTickLocked()
	c.mu.Unlock()
	return c
}

// Emotion returns the current emotion.
func (c *Controller) Emotion() Emotion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emotion
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetEmotion replaces the expression with the preset for the emotion,
// scaled by intensity. A positive Duration schedules an automatic return
// to neutral, canceling any previously scheduled return.
func (c *Controller) SetEmotion(e Emotion, opts EmotionOptions) {
	if opts.Intensity <= 0 {
		opts.Intensity = 1
	}
	if opts.BlendDuration <= 0 {
		opts.BlendDuration = 300 * time.Millisecond
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.emotion = e
	c.intensity = opts.Intensity
	c.target = PresetFor(e).Scale(opts.Intensity)
	c.blendIn = float32(opts.BlendDuration.Seconds())
	c.blend = c.blendIn

	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
	if opts.Duration > 0 {
		c.resetTimer = c.newTimer(opts.Duration, c.returnToNeutral)
	}
}

func (c *Controller) returnToNeutral() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emotion = EmotionNeutral
	c.intensity = 1
	c.target = PresetFor(EmotionNeutral)
	c.blendIn = 0.3
	c.blend = c.blendIn
	c.resetTimer = nil
}

// SetStatus switches the activity state. Leaving idle stops the
// micro-expression generator; returning to idle restarts it.
func (c *Controller) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == s {
		return
	}
	c.status = s

	if s == StatusIdle {
		c.armIdleTickLocked()
	} else if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}

// idleTickInterval is how often the idle generator rolls for a
// micro-expression.
const idleTickInterval = 2 * time.Second

func (c *Controller) armIdleTickLocked() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleTimer = c.newTimer(idleTickInterval, c.idleTick)
}

// idleMicroEmotions is the weighted set the idle generator draws from.
var idleMicroEmotions = []struct {
	emotion Emotion
	weight  float32
}{
	{EmotionNeutral, 0.7},
	{EmotionConfident, 0.1},
	{EmotionThinking, 0.1},
	{EmotionHappy, 0.1},
}

func (c *Controller) idleTick() {
	c.mu.Lock()
	if c.status != StatusIdle {
		c.mu.Unlock()
		return
	}

	var pick Emotion
	trigger := c.rng.Float32() < 0.1
	if trigger {
		pick = c.weightedPickLocked()
		if pick == c.emotion {
			trigger = false
		}
	}
	duration := time.Duration(500+c.rng.Intn(1500)) * time.Millisecond
	c.armIdleTickLocked()
	c.mu.Unlock()

	if trigger {
		c.SetEmotion(pick, EmotionOptions{Intensity: 0.3, Duration: duration})
	}
}

func (c *Controller) weightedPickLocked() Emotion {
	roll := c.rng.Float32()
	var acc float32
	for _, me := range idleMicroEmotions {
		acc += me.weight
		if roll < acc {
			return me.emotion
		}
	}
	return EmotionNeutral
}

// ProcessText scans assistant text for emotion cues and applies the first
// matching rule with a 2.5-3 s hold. Text with no cue leaves the emotion
// unchanged.
func (c *Controller) ProcessText(text string) {
	lower := strings.ToLower(text)
	for _, rule := range textEmotionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				hold := 2500*time.Millisecond + time.Duration(c.rng.Intn(500))*time.Millisecond
				c.SetEmotion(rule.emotion, EmotionOptions{Duration: hold})
				return
			}
		}
	}
}

// UpdateLipSync maps an external audio amplitude (roughly 0..0.5) to mouth
// openness.
func (c *Controller) UpdateLipSync(level float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lipLevel = clamp(level*2, 0, 1)
}

// Update advances the face one frame and returns the weights to render.
// The result is the emotion expression blended over the transition window,
// plus breathing, blinking, saccades, and mouth movement.
func (c *Controller) Update(dt float32) Weights {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.elapsed += dt

	if c.blend > 0 && c.blendIn > 0 {
		c.blend -= dt
		if c.blend <= 0 {
			c.current = c.target
		} else {
			step := dt / (c.blend + dt)
			c.current = c.current.Lerp(c.target, clamp(step, 0, 1))
		}
	} else {
		c.current = c.target
	}

	frame := c.current

	// Breathing: a slow sine adds a sliver of jaw motion.
	breath := float32(math.Sin(float64(c.elapsed*0.2*2*math.Pi)))*0.5 + 0.5
	frame.Bump(JawOpen, breath*0.02)

	c.eyes.update(dt, &frame)

	switch {
	case c.lipLevel > 0:
		frame.Set(JawOpen, clamp(frame.Get(JawOpen)+c.lipLevel, 0, 1))
	case c.status == StatusSpeaking:
		// No amplitude feed: fake mouth motion while speaking.
		frame.Bump(JawOpen, c.rng.Float32()*0.4)
	}

	if c.status == StatusListening {
		frame.Bump(BrowInnerUp, 0.15)
		frame.Bump(EyeWideLeft, 0.1)
		frame.Bump(EyeWideRight, 0.1)
	}

	return frame
}

// Dispose cancels the controller's timers.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}
