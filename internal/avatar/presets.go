package avatar

// Emotion is the avatar's synthesized emotional state.
type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionConfident Emotion = "confident"
	EmotionThinking  Emotion = "thinking"
	EmotionHappy     Emotion = "happy"
	EmotionSurprised Emotion = "surprised"
	EmotionConcerned Emotion = "concerned"
)

// Status is the assistant's activity state as shown by the avatar.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	StatusSpeaking  Status = "speaking"
)

// PresetFor returns the base blendshape weights for an emotion. The lookup
// is pure: same emotion, same weights.
func PresetFor(e Emotion) Weights {
	var w Weights
	switch e {
	case EmotionConfident:
		w.Set(MouthSmileLeft, 0.2)
		w.Set(MouthSmileRight, 0.2)
		w.Set(CheekSquintLeft, 0.1)
		w.Set(CheekSquintRight, 0.1)
		w.Set(EyeSquintLeft, 0.05)
		w.Set(EyeSquintRight, 0.05)
	case EmotionThinking:
		w.Set(BrowInnerUp, 0.25)
		w.Set(EyeLookUp, 0.3)
		w.Set(MouthPressLeft, 0.1)
		w.Set(MouthPressRight, 0.1)
	case EmotionHappy:
		w.Set(MouthSmileLeft, 0.4)
		w.Set(MouthSmileRight, 0.4)
		w.Set(CheekSquintLeft, 0.25)
		w.Set(CheekSquintRight, 0.25)
		w.Set(EyeSquintLeft, 0.15)
		w.Set(EyeSquintRight, 0.15)
	case EmotionSurprised:
		w.Set(BrowInnerUp, 0.4)
		w.Set(BrowOuterUpLeft, 0.3)
		w.Set(BrowOuterUpRight, 0.3)
		w.Set(EyeWideLeft, 0.4)
		w.Set(EyeWideRight, 0.4)
		w.Set(JawOpen, 0.2)
	case EmotionConcerned:
		w.Set(BrowInnerUp, 0.35)
		w.Set(BrowDownLeft, 0.2)
		w.Set(BrowDownRight, 0.2)
		w.Set(MouthFrownLeft, 0.15)
		w.Set(MouthFrownRight, 0.15)
	}
	return w
}
