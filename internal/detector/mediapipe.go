package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the landmark service script cannot be located.
var ErrServiceNotFound = errors.New("landmark_service.py not found")

// idleTimeout is how long the Python process may sit unused before it is stopped.
const idleTimeout = 30 * time.Second

// MediaPipeAnalyzer implements Analyzer using a Python MediaPipe subprocess
// running FaceMesh and Pose on each frame.
type MediaPipeAnalyzer struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeAnalyzer creates a new MediaPipe analyzer.
// The landmark index table is checked against the configured point counts,
// and the Python process is started lazily on first analysis.
func NewMediaPipeAnalyzer(config Config) (*MediaPipeAnalyzer, error) {
	if err := ValidateIndices(config.FaceLandmarkCount, config.PoseLandmarkCount); err != nil {
		return nil, fmt.Errorf("landmark index table: %w", err)
	}

	if findServiceScript() == "" {
		return nil, ErrServiceNotFound
	}

	return &MediaPipeAnalyzer{
		config: config,
	}, nil
}

// Analyze converts the frame to RGB, sends it to the service and returns the
// decoded landmark sets.
func (d *MediaPipeAnalyzer) Analyze(frame *gocv.Mat) (DetectionFrame, error) {
	if frame == nil || frame.Empty() {
		return DetectionFrame{}, fmt.Errorf("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return DetectionFrame{}, err
	}

	// The capture source delivers BGR; MediaPipe expects RGB.
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(*frame, &rgb, gocv.ColorBGRToRGB)

	// Header: width and height as 4-byte big-endian values, then raw pixels.
	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], uint32(rgb.Cols()))
	binary.BigEndian.PutUint32(header[4:8], uint32(rgb.Rows()))

	if _, err := d.stdin.Write(header); err != nil {
		return DetectionFrame{}, fmt.Errorf("write header: %w", err)
	}
	if _, err := d.stdin.Write(rgb.ToBytes()); err != nil {
		return DetectionFrame{}, fmt.Errorf("write pixels: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return DetectionFrame{}, fmt.Errorf("read response: %w", err)
	}

	result, err := parseResponse([]byte(line))
	if err != nil {
		return DetectionFrame{}, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeAnalyzer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeAnalyzer) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findServiceScript()
	if scriptPath == "" {
		return ErrServiceNotFound
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath,
		"--min-detection", strconv.FormatFloat(d.config.MinDetectionConf, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MediaPipeAnalyzer) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeAnalyzer) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/landmark_service.py",
		"../scripts/landmark_service.py",
		filepath.Join(execDir, "scripts/landmark_service.py"),
		filepath.Join(os.Getenv("HOME"), ".emotereactor/scripts/landmark_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".emotereactor/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonResponse is the JSON line written by the Python service per frame.
type jsonResponse struct {
	Face []jsonPoint `json:"face"`
	Pose []jsonPoint `json:"pose"`
}

type jsonPoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Visibility *float64 `json:"visibility,omitempty"`
}

func parseResponse(line []byte) (DetectionFrame, error) {
	var response jsonResponse
	if err := json.Unmarshal(line, &response); err != nil {
		return DetectionFrame{}, fmt.Errorf("parse response: %w", err)
	}

	return DetectionFrame{
		Face: NewFaceLandmarks(toPoints(response.Face)),
		Pose: NewPoseLandmarks(toPoints(response.Pose)),
	}, nil
}

func toPoints(raw []jsonPoint) []Point {
	if raw == nil {
		return nil
	}
	points := make([]Point, len(raw))
	for i, p := range raw {
		vis := 1.0
		if p.Visibility != nil {
			vis = *p.Visibility
		}
		points[i] = Point{X: p.X, Y: p.Y, Visibility: vis}
	}
	return points
}
