package avatar

type ShapeIndex int

const (
	BrowInnerUp ShapeIndex = iota
	BrowDownLeft
	BrowDownRight
	BrowOuterUpLeft
	BrowOuterUpRight
	EyeBlinkLeft
	EyeBlinkRight
	EyeWideLeft
	EyeWideRight
	EyeSquintLeft
	EyeSquintRight
	EyeLookLeft
	EyeLookRight
	EyeLookUp
	EyeLookDown
	CheekSquintLeft
	CheekSquintRight
	JawOpen
	MouthSmileLeft
	MouthSmileRight
	MouthFrownLeft
	MouthFrownRight
	MouthPressLeft
	MouthPressRight
	ShapeCount
)

var ShapeNames = [ShapeCount]string{
	"browInnerUp",
	"browDownLeft",
	"browDownRight",
	"browOuterUpLeft",
	"browOuterUpRight",
	"eyeBlinkLeft",
	"eyeBlinkRight",
	"eyeWideLeft",
	"eyeWideRight",
	"eyeSquintLeft",
	"eyeSquintRight",
	"eyeLookLeft",
	"eyeLookRight",
	"eyeLookUp",
	"eyeLookDown",
	"cheekSquintLeft",
	"cheekSquintRight",
	"jawOpen",
	"mouthSmileLeft",
	"mouthSmileRight",
	"mouthFrownLeft",
	"mouthFrownRight",
	"mouthPressLeft",
	"mouthPressRight",
}

// Weights is one full set of blendshape weights, each clamped to [0,1].
type Weights [ShapeCount]float32

func (w *Weights) Set(idx ShapeIndex, value float32) {
	w[idx] = clamp(value, 0, 1)
}

func (w *Weights) Get(idx ShapeIndex) float32 {
	return w[idx]
}

func (w *Weights) Bump(idx ShapeIndex, delta float32) {
	w.Set(idx, w[idx]+delta)
}

func (w *Weights) Reset() {
	for i := range w {
		w[i] = 0
	}
}

func (w Weights) Lerp(target Weights, t float32) Weights {
	if t <= 0 {
		return w
	}
	if t >= 1 {
		return target
	}
	var out Weights
	for i := range w {
		out[i] = w[i] + (target[i]-w[i])*t
	}
	return out
}

func (w Weights) Scale(factor float32) Weights {
	var out Weights
	for i := range w {
		out[i] = clamp(w[i]*factor, 0, 1)
	}
	return out
}

// NamedWeight pairs a blendshape name with its weight for wire export.
type NamedWeight struct {
	Name   string  `json:"name"`
	Weight float32 `json:"weight"`
}

// Named returns the non-zero weights as name/weight pairs.
func (w Weights) Named() []NamedWeight {
	var out []NamedWeight
	for i, v := range w {
		if v > 0 {
			out = append(out, NamedWeight{Name: ShapeNames[i], Weight: v})
		}
	}
	return out
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
