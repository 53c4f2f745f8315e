// Package emote plays back one looping reaction GIF per gesture label.
package emote

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"

	"github.com/disintegration/gift"
	"gocv.io/x/gocv"

	"github.com/ayusman/emotereactor/internal/gesture"
)

// DefaultSize is the size every emote frame is resized to.
var DefaultSize = image.Pt(720, 450)

// ErrNoFrames is returned when a GIF decodes to zero frames.
var ErrNoFrames = errors.New("emote has no frames")

// Player holds the decoded frames of every loaded emote and the playback
// position of the current one. The position advances once per Next call, so
// playback speed follows the render loop rather than the GIF delays.
type Player struct {
	frames  map[gesture.Label][]gocv.Mat
	current gesture.Label
	index   int
	size    image.Point
}

// NewPlayer creates an empty Player showing neutral.
func NewPlayer(size image.Point) *Player {
	if size.X <= 0 || size.Y <= 0 {
		size = DefaultSize
	}
	return &Player{
		frames:  make(map[gesture.Label][]gocv.Mat),
		current: gesture.LabelNeutral,
		size:    size,
	}
}

// DefaultPaths maps every label to <dir>/<label>.gif.
func DefaultPaths(dir string) map[gesture.Label]string {
	paths := make(map[gesture.Label]string, len(gesture.Labels))
	for _, l := range gesture.Labels {
		paths[l] = filepath.Join(dir, l.String()+".gif")
	}
	return paths
}

// Load decodes the GIF for each label. Labels that fail to load are skipped
// and reported together in the returned error; the Player is usable either way.
func Load(paths map[gesture.Label]string, size image.Point) (*Player, error) {
	p := NewPlayer(size)

	var errs []error
	for label, path := range paths {
		if err := p.LoadFile(label, path); err != nil {
			errs = append(errs, err)
		}
	}

	return p, errors.Join(errs...)
}

// LoadFile decodes a GIF file and registers its frames for label.
func (p *Player) LoadFile(label gesture.Label, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open emote %s: %w", label, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return fmt.Errorf("failed to decode emote %s: %w", label, err)
	}

	images := Composite(g)
	if len(images) == 0 {
		return fmt.Errorf("emote %s: %w", label, ErrNoFrames)
	}

	return p.Add(label, images)
}

// Add resizes images to the player size, converts them to Mats and
// registers them for label, replacing any previous frames.
func (p *Player) Add(label gesture.Label, images []image.Image) error {
	if len(images) == 0 {
		return fmt.Errorf("emote %s: %w", label, ErrNoFrames)
	}

	filter := gift.New(gift.Resize(p.size.X, p.size.Y, gift.LinearResampling))

	mats := make([]gocv.Mat, 0, len(images))
	for i, img := range images {
		dst := image.NewRGBA(filter.Bounds(img.Bounds()))
		filter.Draw(dst, img)

		mat, err := gocv.ImageToMatRGB(dst)
		if err != nil {
			closeAll(mats)
			return fmt.Errorf("failed to convert frame %d of emote %s: %w", i, label, err)
		}
		mats = append(mats, mat)
	}

	closeAll(p.frames[label])
	p.frames[label] = mats
	return nil
}

// Set switches to label and rewinds. It does nothing when label is already
// current or has no frames.
func (p *Player) Set(label gesture.Label) {
	if label == p.current {
		return
	}
	if _, ok := p.frames[label]; !ok {
		return
	}
	p.current = label
	p.index = 0
}

// Current returns the label being played.
func (p *Player) Current() gesture.Label {
	return p.current
}

// Next returns the current frame and advances playback, wrapping at the end.
// It returns false when the current label has no frames. The returned Mat is
// owned by the Player.
func (p *Player) Next() (gocv.Mat, bool) {
	frames := p.frames[p.current]
	if len(frames) == 0 {
		return gocv.Mat{}, false
	}
	frame := frames[p.index%len(frames)]
	p.index++
	return frame, true
}

// Loaded reports whether label has frames.
func (p *Player) Loaded(label gesture.Label) bool {
	return len(p.frames[label]) > 0
}

// FrameCount returns the number of frames loaded for label.
func (p *Player) FrameCount(label gesture.Label) int {
	return len(p.frames[label])
}

// Close releases every decoded frame.
func (p *Player) Close() error {
	for label, mats := range p.frames {
		closeAll(mats)
		delete(p.frames, label)
	}
	return nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}

// Composite renders every GIF frame onto a full-size canvas, applying each
// frame's disposal method, so delta-encoded frames come out complete.
func Composite(g *gif.GIF) []image.Image {
	if len(g.Image) == 0 {
		return nil
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewRGBA(bounds)
	out := make([]image.Image, 0, len(g.Image))

	for i, frame := range g.Image {
		var previous *image.RGBA
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(bounds)
			draw.Draw(previous, bounds, canvas, bounds.Min, draw.Src)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snapshot := image.NewRGBA(bounds)
		draw.Draw(snapshot, bounds, canvas, bounds.Min, draw.Src)
		out = append(out, snapshot)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			draw.Draw(canvas, bounds, previous, bounds.Min, draw.Src)
		}
	}

	return out
}
