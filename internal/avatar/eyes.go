package avatar

import "math/rand"

type blinkPhase int

const (
	blinkOpen blinkPhase = iota
	blinkClosing
	blinkClosed
	blinkOpening
)

// eyeRig drives blinking and eye-dart saccades as a pure function of
// elapsed time plus its own random schedule.
type eyeRig struct {
	rng *rand.Rand

	phase     blinkPhase
	progress  float32
	untilNext float32 // seconds until the next blink
	duration  float32

	saccadeX  float32
	saccadeY  float32
	untilDart float32
}

func newEyeRig(rng *rand.Rand) *eyeRig {
	r := &eyeRig{
		rng:      rng,
		duration: 0.15,
	}
	r.untilNext = r.randRange(2, 5)
	r.untilDart = r.randRange(0.5, 2)
	return r
}

func (r *eyeRig) randRange(lo, hi float32) float32 {
	return lo + r.rng.Float32()*(hi-lo)
}

func (r *eyeRig) update(dt float32, w *Weights) {
	r.updateBlink(dt)
	r.updateSaccade(dt)

	w.Set(EyeBlinkLeft, r.blinkAmount())
	w.Set(EyeBlinkRight, r.blinkAmount())

	if r.saccadeX > 0 {
		w.Bump(EyeLookRight, r.saccadeX)
	} else {
		w.Bump(EyeLookLeft, -r.saccadeX)
	}
	if r.saccadeY > 0 {
		w.Bump(EyeLookUp, r.saccadeY)
	} else {
		w.Bump(EyeLookDown, -r.saccadeY)
	}
}

func (r *eyeRig) updateBlink(dt float32) {
	switch r.phase {
	case blinkOpen:
		r.untilNext -= dt
		if r.untilNext <= 0 {
			r.phase = blinkClosing
			r.progress = 0
		}
	case blinkClosing:
		r.progress += dt / (r.duration * 0.4)
		if r.progress >= 1 {
			r.progress = 1
			r.phase = blinkClosed
		}
	case blinkClosed:
		r.progress += dt / (r.duration * 0.1)
		if r.progress >= 1.1 {
			r.phase = blinkOpening
			r.progress = 1
		}
	case blinkOpening:
		r.progress -= dt / (r.duration * 0.5)
		if r.progress <= 0 {
			r.progress = 0
			r.phase = blinkOpen
			r.untilNext = r.randRange(2, 5)
		}
	}
}

func (r *eyeRig) updateSaccade(dt float32) {
	r.untilDart -= dt
	if r.untilDart <= 0 {
		r.saccadeX = (r.rng.Float32()*2 - 1) * 0.05
		r.saccadeY = (r.rng.Float32()*2 - 1) * 0.025
		r.untilDart = r.randRange(0.3, 1.5)
	}
}

func (r *eyeRig) blinkAmount() float32 {
	switch r.phase {
	case blinkClosing:
		return r.progress * (2 - r.progress)
	case blinkClosed:
		return 1
	case blinkOpening:
		return r.progress * r.progress
	default:
		return 0
	}
}

// triggerBlink forces an immediate blink if the eyes are open.
func (r *eyeRig) triggerBlink() {
	if r.phase == blinkOpen {
		r.phase = blinkClosing
		r.progress = 0
	}
}
