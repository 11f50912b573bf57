package camera

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	imaging "github.com/mpoegel/hikgrab/pkg/imaging"
	metrics "github.com/mpoegel/hikgrab/pkg/metrics"
	mvs "github.com/mpoegel/hikgrab/pkg/mvs"
)

const DefaultPollTimeout = 1000 * time.Millisecond

type Encoder interface {
	EncodeJPEG(img imaging.RGB, ts time.Time) ([]byte, error)
}

// Notifier is told about every saved frame.
type Notifier interface {
	Notify(ev FrameEvent) error
	Close()
}

type FrameEvent struct {
	File      string
	Index     uint64
	Frame     int
	Timestamp time.Time
	Width     int
	Height    int
	DeviceID  string
}

type GrabberOptions struct {
	PollTimeout time.Duration
	// PayloadSize presizes the frame copy buffer.
	PayloadSize int
	Namer       FileNamer
	Encoder     Encoder
	Saver       ImageSaver
	Notifier    Notifier
	DeviceID    string
}

// Grabber is the capture loop. It is the only user of its device.
type Grabber struct {
	dev Device
	opt GrabberOptions
	buf []byte
	now func() time.Time
}

func NewGrabber(dev Device, opt GrabberOptions) *Grabber {
	if opt.PollTimeout <= 0 {
		opt.PollTimeout = DefaultPollTimeout
	}
	if opt.Namer.Sequence == nil {
		opt.Namer.Sequence = &Sequence{}
	}
	size := opt.PayloadSize
	if size < 0 {
		size = 0
	}
	return &Grabber{
		dev: dev,
		opt: opt,
		buf: make([]byte, 0, size),
		now: time.Now,
	}
}

// Run polls until ctx is done. Cancellation is checked after every poll,
// so one poll timeout bounds shutdown latency.
func (g *Grabber) Run(ctx context.Context) error {
	frameNumber := 1
	for {
		if g.grab(frameNumber) {
			frameNumber++
		}

		select {
		case <-ctx.Done():
			slog.Info("capture loop stopped", "saved", frameNumber-1)
			return nil
		default:
		}
	}
}

func (g *Grabber) grab(frameNumber int) bool {
	frame, err := g.dev.GetImageBuffer(g.opt.PollTimeout)
	ts := g.now()
	slog.Debug("poll returned", "timestamp", imaging.FormatTimestamp(ts))

	if err != nil {
		metrics.PollFailures.Inc()
		slog.Warn("no image data", "err", err)
		return false
	}

	index, name := g.opt.Namer.Next(frameNumber)
	slog.Info("image captured", "file", name, "width", frame.Info.Width, "height", frame.Info.Height, "frameNum", frame.Info.FrameNum)

	img, err := g.copyFrame(frame)
	if err != nil {
		metrics.SaveFailures.WithLabelValues("frame").Inc()
		slog.Warn("unusable frame", "file", name, "err", err)
		return false
	}

	start := time.Now()
	data, err := g.opt.Encoder.EncodeJPEG(img, ts)
	metrics.EncodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SaveFailures.WithLabelValues("encode").Inc()
		slog.Warn("failed to encode image", "file", name, "err", err)
		return false
	}

	if err := g.opt.Saver.Save(name, data, ts); err != nil {
		metrics.SaveFailures.WithLabelValues("save").Inc()
		slog.Warn("failed to save image", "file", name, "err", err)
		return false
	}
	metrics.FramesSaved.Inc()
	slog.Debug("image saved", "file", name, "bytes", len(data))

	if g.opt.Notifier != nil {
		ev := FrameEvent{
			File:      name,
			Index:     index,
			Frame:     frameNumber,
			Timestamp: ts,
			Width:     img.Width,
			Height:    img.Height,
			DeviceID:  g.opt.DeviceID,
		}
		if err := g.opt.Notifier.Notify(ev); err != nil {
			slog.Warn("failed to notify", "file", name, "err", err)
		}
	}

	return true
}

// copyFrame copies the SDK buffer into the grabber's own buffer and hands
// the SDK buffer back before returning, whatever the outcome.
func (g *Grabber) copyFrame(frame *mvs.Frame) (imaging.RGB, error) {
	defer func() {
		if err := g.dev.FreeImageBuffer(frame); err != nil {
			slog.Warn("failed to free image buffer", "err", err)
		}
	}()

	if frame.Info.PixelType != mvs.PixelTypeRGB8Packed {
		slog.Debug("interpreting frame as RGB", "pixelType", fmt.Sprintf("0x%08x", uint32(frame.Info.PixelType)))
	}

	w, h := int(frame.Info.Width), int(frame.Info.Height)
	n := w * h * 3
	if w == 0 || h == 0 {
		return imaging.RGB{}, imaging.ErrEmptyImage
	}
	if len(frame.Data) < n {
		return imaging.RGB{}, fmt.Errorf("short frame: have %d bytes, need %d for %dx%d RGB", len(frame.Data), n, w, h)
	}

	if cap(g.buf) < n {
		g.buf = make([]byte, n)
	}
	g.buf = g.buf[:n]
	copy(g.buf, frame.Data[:n])

	return imaging.RGB{Width: w, Height: h, Pix: g.buf}, nil
}
