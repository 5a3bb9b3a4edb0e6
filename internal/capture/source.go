package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/airboard/internal/detector"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
	"gocv.io/x/gocv"
)

// PreviewEvery is how many sampled frames pass between preview encodes.
const PreviewEvery = 3

// Source produces landmark frames for the pipeline. A source is owned by
// whoever started it: Run until ctx is canceled, then Close once.
type Source interface {
	// Run emits frames on out until ctx is done or a fatal error occurs.
	// Sends never block; a frame the consumer is not ready for is dropped.
	Run(ctx context.Context, out chan<- gesture.Frame) error
	// Close releases the camera and detector.
	Close() error
}

// CameraSource samples a camera at a fixed rate, runs the detector on each
// frame and emits the first detected hand, or an empty frame when none is.
type CameraSource struct {
	cam Camera
	det detector.Detector
	fps int

	dropped atomic.Int64
	emitted atomic.Int64
	sampled atomic.Int64
	preview atomic.Pointer[[]byte]

	closeOnce sync.Once
	closeErr  error
}

// NewCameraSource takes ownership of cam and det. A non-positive fps uses
// DefaultFPS.
func NewCameraSource(cam Camera, det detector.Detector, fps int) *CameraSource {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &CameraSource{cam: cam, det: det, fps: fps}
}

// Dropped counts frames discarded because the consumer was busy.
func (s *CameraSource) Dropped() int64 {
	return s.dropped.Load()
}

// Emitted counts frames delivered to the consumer.
func (s *CameraSource) Emitted() int64 {
	return s.emitted.Load()
}

// Preview returns the most recent JPEG-encoded camera frame, or nil before
// the first encode.
func (s *CameraSource) Preview() []byte {
	if p := s.preview.Load(); p != nil {
		return *p
	}
	return nil
}

// Run opens the camera and samples it until ctx is canceled.
func (s *CameraSource) Run(ctx context.Context, out chan<- gesture.Frame) error {
	s.cam.SetFPS(s.fps)
	if err := s.cam.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer s.cam.Close()

	logger := log.With("component", "camera_source")
	logger.Info("camera source started", "fps", s.fps)
	defer func() {
		logger.Info("camera source stopped", "emitted", s.Emitted(), "dropped", s.Dropped())
	}()

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			frame, err := s.sample(now)
			if err != nil {
				if errors.Is(err, ErrCameraNotOpen) || errors.Is(err, ErrCameraLost) || errors.Is(err, ErrNoMoreFrames) {
					return err
				}
				logger.Warn("frame skipped", "error", err)
				continue
			}

			select {
			case out <- frame:
				s.emitted.Add(1)
			default:
				s.dropped.Add(1)
			}
		}
	}
}

// sample reads one frame and detects hands in it.
func (s *CameraSource) sample(now time.Time) (gesture.Frame, error) {
	mat, err := s.cam.ReadFrame()
	if err != nil {
		return gesture.Frame{}, err
	}
	defer mat.Close()

	if s.sampled.Add(1)%PreviewEvery == 1 {
		s.encodePreview(mat)
	}

	frame := gesture.Frame{
		Width:     float64(mat.Cols()),
		Height:    float64(mat.Rows()),
		Timestamp: now,
	}

	hands, err := s.det.Detect(mat)
	if err != nil {
		return gesture.Frame{}, fmt.Errorf("detect: %w", err)
	}
	if hand, ok := detector.Primary(hands); ok {
		frame.Landmarks = hand.Slice()
	}

	return frame, nil
}

func (s *CameraSource) encodePreview(mat *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *mat)
	if err != nil {
		log.Debug("preview encode failed", "error", err)
		return
	}
	defer buf.Close()

	jpeg := append([]byte(nil), buf.GetBytes()...)
	s.preview.Store(&jpeg)
}

// Close shuts down the detector. It is safe to call more than once.
func (s *CameraSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.det.Close()
	})
	return s.closeErr
}
