package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrInvalidConfig is returned for detector options MediaPipe would reject.
var ErrInvalidConfig = errors.New("detector: invalid config")

// Detector finds hands in a BGR camera frame. Hands come back in detection
// order and an empty slice means no hand is visible.
type Detector interface {
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Config holds the MediaPipe Hands options handed to the detector process.
type Config struct {
	MaxHands               int
	MinDetectionConfidence float64 // 0..1
	MinTrackingConfidence  float64 // 0..1
}

// DefaultConfig returns the settings the workspace runs MediaPipe Hands with.
// Only one hand is tracked.
func DefaultConfig() Config {
	return Config{
		MaxHands:               1,
		MinDetectionConfidence: 0.7,
		MinTrackingConfidence:  0.5,
	}
}

// Validate reports options outside MediaPipe's accepted ranges.
func (c Config) Validate() error {
	if c.MaxHands < 1 {
		return fmt.Errorf("%w: max hands %d", ErrInvalidConfig, c.MaxHands)
	}
	if c.MinDetectionConfidence < 0 || c.MinDetectionConfidence > 1 {
		return fmt.Errorf("%w: detection confidence %g", ErrInvalidConfig, c.MinDetectionConfidence)
	}
	if c.MinTrackingConfidence < 0 || c.MinTrackingConfidence > 1 {
		return fmt.Errorf("%w: tracking confidence %g", ErrInvalidConfig, c.MinTrackingConfidence)
	}
	return nil
}

// Primary returns the hand the gesture pipeline follows: the first one
// detected. ok is false when hands is empty.
func Primary(hands []HandLandmarks) (h HandLandmarks, ok bool) {
	if len(hands) == 0 {
		return HandLandmarks{}, false
	}
	return hands[0], true
}
