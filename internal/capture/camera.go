// Package capture reads webcam frames with GoCV and hands them out mirrored
// and resized to the size the gesture thresholds expect.
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frames are normalized to 720x450 before analysis.
const (
	DefaultFPS    = 30
	DefaultWidth  = 720
	DefaultHeight = 450
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device delivered no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a source of normalized frames. The caller owns every Mat
// returned by ReadFrame.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// Options configures a device camera.
type Options struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

// DefaultOptions returns 720x450 at 30 FPS for the given device.
func DefaultOptions(deviceID int) Options {
	return Options{
		DeviceID: deviceID,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
	}
}

// Size returns the output frame size.
func (o Options) Size() image.Point {
	return image.Pt(o.Width, o.Height)
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = DefaultWidth, DefaultHeight
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	return o
}

// DeviceCamera captures from a local video device.
type DeviceCamera struct {
	opts Options

	mu  sync.Mutex
	vc  *gocv.VideoCapture
	raw gocv.Mat // reused between reads, valid while vc is open
}

// NewCamera returns a DeviceCamera for deviceID with the default options.
func NewCamera(deviceID int) Camera {
	return NewDeviceCamera(DefaultOptions(deviceID))
}

// NewDeviceCamera returns a DeviceCamera. Missing sizes or FPS fall back to
// the defaults.
func NewDeviceCamera(opts Options) *DeviceCamera {
	return &DeviceCamera{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (c *DeviceCamera) Options() Options {
	return c.opts
}

// Open starts capturing. Opening an open camera is a no-op.
func (c *DeviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.opts.DeviceID)
	if err != nil {
		return fmt.Errorf("open device %d: %w", c.opts.DeviceID, err)
	}

	// The device may ignore these; ReadFrame resizes regardless
	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))

	c.vc = vc
	c.raw = gocv.NewMat()
	return nil
}

// Close stops capturing and releases the device.
func (c *DeviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil
	}

	err := c.vc.Close()
	c.raw.Close()
	c.vc = nil
	return err
}

// ReadFrame grabs the next frame, mirrored and resized.
func (c *DeviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil, ErrCameraNotOpen
	}

	if ok := c.vc.Read(&c.raw); !ok {
		return nil, fmt.Errorf("read device %d failed", c.opts.DeviceID)
	}
	if c.raw.Empty() {
		return nil, ErrEmptyFrame
	}

	frame := Normalize(c.raw, c.opts.Size())
	return &frame, nil
}

// IsOpen reports whether the device is capturing.
func (c *DeviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.vc != nil
}

// Normalize mirrors src horizontally and resizes it to size. src is left
// untouched and the caller owns the result.
func Normalize(src gocv.Mat, size image.Point) gocv.Mat {
	mirrored := gocv.NewMat()
	gocv.Flip(src, &mirrored, 1)

	if mirrored.Cols() == size.X && mirrored.Rows() == size.Y {
		return mirrored
	}
	defer mirrored.Close()

	dst := gocv.NewMat()
	gocv.Resize(mirrored, &dst, size, 0, 0, gocv.InterpolationLinear)
	return dst
}
