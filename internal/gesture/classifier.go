// Package gesture turns per-frame hand landmarks into gesture labels and
// debounced workspace actions.
package gesture

import "github.com/ayusman/airboard/internal/detector"

// Label is the discrete gesture recognized in a single frame.
type Label string

const (
	LabelNone     Label = "none"
	LabelFist     Label = "fist"
	LabelPoint    Label = "point"
	LabelPeace    Label = "peace"
	LabelOpenHand Label = "open_hand"
	LabelThumbsUp Label = "thumbs_up"
)

// Finger indexes into the FingersUp result and selects a tip for FingerTip.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var (
	tipIDs   = [5]int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}
	jointIDs = [5]int{detector.ThumbIP, detector.IndexPIP, detector.MiddlePIP, detector.RingPIP, detector.PinkyPIP}
)

// Position is a 2D point, normalized or in canvas pixels depending on context.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FingersUp reports which fingers are extended, indexed by Finger.
// The thumb is up when its tip is right of its IP joint; the other fingers
// are up when the tip is strictly above the PIP joint. Returns ok=false for
// anything other than 21 points.
func FingersUp(points []detector.Point3D) (up [5]bool, ok bool) {
	if len(points) != detector.NumLandmarks {
		return up, false
	}

	up[Thumb] = points[tipIDs[Thumb]].X > points[jointIDs[Thumb]].X
	for f := Index; f <= Pinky; f++ {
		up[f] = points[tipIDs[f]].Y < points[jointIDs[f]].Y
	}
	return up, true
}

// Classify maps one frame of landmarks to a Label. It is a pure function of
// its input; malformed input yields LabelNone.
//
// Precedence, first match wins:
//
//	index only (thumb ignored)          -> point
//	index + middle only (thumb ignored) -> peace
//	thumb only                          -> thumbs_up
//	at most one finger up               -> fist
//	four or more up                     -> open_hand
func Classify(points []detector.Point3D) Label {
	up, ok := FingersUp(points)
	if !ok {
		return LabelNone
	}

	count := 0
	for _, u := range up {
		if u {
			count++
		}
	}

	ringOrPinky := up[Ring] || up[Pinky]

	switch {
	case up[Index] && !up[Middle] && !ringOrPinky:
		return LabelPoint
	case up[Index] && up[Middle] && !ringOrPinky:
		return LabelPeace
	case up[Thumb] && count == 1:
		return LabelThumbsUp
	case count <= 1:
		return LabelFist
	case count >= 4:
		return LabelOpenHand
	}
	return LabelNone
}

// FingerTip returns the normalized tip position of a finger.
func FingerTip(points []detector.Point3D, f Finger) (Position, bool) {
	if len(points) != detector.NumLandmarks || f < Thumb || f > Pinky {
		return Position{}, false
	}
	p := points[tipIDs[f]]
	return Position{X: p.X, Y: p.Y}, true
}

// HandCenter returns the normalized wrist position, used as the hand's
// reference point for position-sensitive actions.
func HandCenter(points []detector.Point3D) (Position, bool) {
	if len(points) != detector.NumLandmarks {
		return Position{}, false
	}
	p := points[detector.Wrist]
	return Position{X: p.X, Y: p.Y}, true
}
