package vision

import "math"

// ContourArea computes the polygon area of an ordered landmark ring using
// the shoelace formula. Returns 0 for degenerate contours.
func ContourArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	var sum float64
	for i, p := range points {
		q := points[(i+1)%len(points)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// EyesClosed reports whether the eyes count as closed for this frame: true
// when either eye's contour area falls below the calibration threshold.
// Stateless; temporal smoothing happens in the detector.
func EyesClosed(lm *FaceLandmarks, areaThreshold float64) bool {
	return ContourArea(lm.LeftEye) < areaThreshold || ContourArea(lm.RightEye) < areaThreshold
}
