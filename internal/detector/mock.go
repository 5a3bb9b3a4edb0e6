package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Finger column positions for the preset poses, right hand with the palm
// facing the camera.
var fingerX = [5]float64{0.0, 0.55, 0.50, 0.45, 0.40}

// PoseLandmarks builds a right hand with the wrist at (0.5, 0.8) and each
// finger either extended or curled. An extended thumb points sideways
// (tip right of its joint); an extended finger points up (tip above its PIP).
func PoseLandmarks(thumb, index, middle, ring, pinky bool) HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	lm.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.01}
	lm.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: 0.02}
	if thumb {
		lm.Points[ThumbIP] = Point3D{X: 0.66, Y: 0.66, Z: 0.02}
		lm.Points[ThumbTip] = Point3D{X: 0.72, Y: 0.62, Z: 0.02}
	} else {
		lm.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.66, Z: -0.02}
		lm.Points[ThumbTip] = Point3D{X: 0.53, Y: 0.66, Z: -0.03}
	}

	extended := [5]bool{thumb, index, middle, ring, pinky}
	for f := 1; f < 5; f++ {
		base := IndexMCP + (f-1)*4
		x := fingerX[f]
		lm.Points[base] = Point3D{X: x, Y: 0.68}
		if extended[f] {
			lm.Points[base+1] = Point3D{X: x, Y: 0.55}
			lm.Points[base+2] = Point3D{X: x, Y: 0.45}
			lm.Points[base+3] = Point3D{X: x, Y: 0.35}
		} else {
			lm.Points[base+1] = Point3D{X: x, Y: 0.62, Z: -0.05}
			lm.Points[base+2] = Point3D{X: x - 0.02, Y: 0.66, Z: -0.04}
			lm.Points[base+3] = Point3D{X: x - 0.03, Y: 0.70, Z: -0.02}
		}
	}

	return lm
}

// FistLandmarks returns a closed fist: every finger curled, thumb tucked.
func FistLandmarks() HandLandmarks {
	return PoseLandmarks(false, false, false, false, false)
}

// PointLandmarks returns a pointing hand: only the index finger extended.
// The index tip sits at (0.55, 0.35).
func PointLandmarks() HandLandmarks {
	return PoseLandmarks(false, true, false, false, false)
}

// PeaceLandmarks returns a V sign: index and middle extended.
func PeaceLandmarks() HandLandmarks {
	return PoseLandmarks(false, true, true, false, false)
}

// ThumbsUpLandmarks returns a hand with only the thumb extended.
func ThumbsUpLandmarks() HandLandmarks {
	return PoseLandmarks(true, false, false, false, false)
}

// OpenPalmLandmarks returns an open hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return PoseLandmarks(true, true, true, true, true)
}
