// Package vision holds the pure per-frame classifiers that turn facial
// landmark coordinates into eye and mouth state. The landmark provider
// itself (camera + face mesh) is an external collaborator: each frame either
// yields a FaceLandmarks or nothing at all.
package vision

// Point is a normalized 2-D landmark coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceLandmarks carries the subset of face-mesh points the classifiers need.
// LeftEye and RightEye are the eye-contour rings, ordered; the mouth points
// are the two corners plus the vertical lip pair.
type FaceLandmarks struct {
	LeftEye  []Point `json:"left_eye"`
	RightEye []Point `json:"right_eye"`

	MouthLeft   Point `json:"mouth_left"`
	MouthRight  Point `json:"mouth_right"`
	MouthTop    Point `json:"mouth_top"`
	MouthBottom Point `json:"mouth_bottom"`
}
