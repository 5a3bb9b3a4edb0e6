// Package capture reads camera frames with GoCV and turns them into
// per-frame hand landmark samples for the gesture pipeline.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/airboard/internal/log"
)

// Default camera settings. The dwell threshold counts frames, so the
// camera runs near the browser's 30 FPS.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480

	// MaxReadFailures consecutive empty reads mean the device is gone.
	MaxReadFailures = 30
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrReadFailed is returned when the device yields no usable frame.
	ErrReadFailed = errors.New("failed to read frame from camera")
	// ErrCameraLost is returned once reads have failed MaxReadFailures
	// times in a row.
	ErrCameraLost = errors.New("camera stopped delivering frames")
)

// Camera is a frame source.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller must Close it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Options are the capture properties requested from the device. Drivers
// may negotiate something else; frames report their real size.
type Options struct {
	Width  int
	Height int
	FPS    int
}

// DefaultOptions returns 640x480 at DefaultFPS.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = d.Width, d.Height
	}
	if o.FPS <= 0 {
		o.FPS = d.FPS
	}
	return o
}

// deviceCamera captures from a local device through GoCV.
type deviceCamera struct {
	deviceID int

	mu       sync.Mutex
	opts     Options
	vc       *gocv.VideoCapture
	failures int
}

// NewCamera creates a camera for deviceID with DefaultOptions. It is not
// opened.
func NewCamera(deviceID int) Camera {
	return NewCameraWithOptions(deviceID, DefaultOptions())
}

// NewCameraWithOptions creates a camera for deviceID. Unset options take
// their defaults.
func NewCameraWithOptions(deviceID int, opts Options) Camera {
	return &deviceCamera{deviceID: deviceID, opts: opts.withDefaults()}
}

// Open opens the device and requests the configured size and rate.
func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open device %d: %w", c.deviceID, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))
	log.Debug("camera opened",
		"device", c.deviceID,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"fps", vc.Get(gocv.VideoCaptureFPS),
	)

	c.vc = vc
	c.failures = 0
	return nil
}

// Close releases the device. Closing a closed camera is a no-op.
func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}

// ReadFrame grabs one frame. Isolated empty reads return ErrReadFailed; a
// run of MaxReadFailures returns ErrCameraLost.
func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		c.failures++
		if c.failures >= MaxReadFailures {
			return nil, fmt.Errorf("device %d: %w", c.deviceID, ErrCameraLost)
		}
		return nil, ErrReadFailed
	}

	c.failures = 0
	return &mat, nil
}

// SetFPS sets the capture rate. Non-positive values are ignored.
func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opts.FPS = fps
	if c.vc != nil {
		c.vc.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.FPS
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc != nil
}
