package vision

import "math"

// epsilon keeps the ratio finite when the mouth corners collapse onto the
// same x position (profile views, partial occlusion).
const epsilon = 1e-6

// MouthOpenRatio computes vertical lip gap over horizontal mouth width and
// classifies the frame against the given threshold. Returns the raw ratio
// alongside the boolean so the caller can log or re-threshold it.
func MouthOpenRatio(lm *FaceLandmarks, threshold float64) (isYawning bool, ratio float64) {
	vertical := distance(lm.MouthTop, lm.MouthBottom)
	horizontal := distance(lm.MouthLeft, lm.MouthRight)
	ratio = vertical / (horizontal + epsilon)
	return ratio > threshold, ratio
}

func distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
