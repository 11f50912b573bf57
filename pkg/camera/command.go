package camera

import (
	"context"
	"flag"
	"log/slog"
	"time"

	config "github.com/mpoegel/hikgrab/pkg/config"
	imaging "github.com/mpoegel/hikgrab/pkg/imaging"
	metrics "github.com/mpoegel/hikgrab/pkg/metrics"
	mvs "github.com/mpoegel/hikgrab/pkg/mvs"
)

type Options struct {
	ConfigFile       string
	Save             string
	Prefix           string
	PollTimeout      time.Duration
	Quality          int
	AllowOpenFailure bool
	MetricsAddr      string
	NATSURL          string
	NATSSubject      string
}

func Run(ctx context.Context, args []string) error {
	opt := Options{}
	fs := cameraFlags(&opt, flag.ExitOnError)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := applyConfig(fs, &opt); err != nil {
		return err
	}

	return cameraLoop(ctx, mvsSDK{}, opt)
}

func cameraFlags(opt *Options, errorHandling flag.ErrorHandling) *flag.FlagSet {
	fs := flag.NewFlagSet("camera", errorHandling)

	fs.StringVar(&opt.ConfigFile, "c", "", "yaml config file; flags set on the command line take precedence")
	fs.StringVar(&opt.Save, "s", DefaultDestination, "place to save pictures (file://, tcp:// or unix://)")
	fs.StringVar(&opt.Prefix, "prefix", DefaultPrefix, "file name prefix")
	fs.DurationVar(&opt.PollTimeout, "t", DefaultPollTimeout, "image buffer poll timeout")
	fs.IntVar(&opt.Quality, "quality", imaging.DefaultQuality, "jpeg quality (1-100)")
	fs.BoolVar(&opt.AllowOpenFailure, "allow-open-failure", false, "keep configuring the device when exclusive open fails")
	fs.StringVar(&opt.MetricsAddr, "metrics", "", "serve prometheus metrics on this address")
	fs.StringVar(&opt.NATSURL, "nats", "", "publish frame events to this nats server")
	fs.StringVar(&opt.NATSSubject, "nats-subject", DefaultNATSSubject, "nats subject for frame events")

	return fs
}

// applyConfig fills options from the config file unless their flag was set.
func applyConfig(fs *flag.FlagSet, opt *Options) error {
	if opt.ConfigFile == "" {
		return nil
	}
	cfg, err := config.LoadConfig(opt.ConfigFile)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	c := cfg.Camera
	if !set["s"] && c.Save != "" {
		opt.Save = c.Save
	}
	if !set["prefix"] && c.Prefix != "" {
		opt.Prefix = c.Prefix
	}
	if !set["t"] && c.PollTimeout > 0 {
		opt.PollTimeout = c.PollTimeout
	}
	if !set["quality"] && c.JPEGQuality > 0 {
		opt.Quality = c.JPEGQuality
	}
	if !set["allow-open-failure"] && c.AllowOpenFailure {
		opt.AllowOpenFailure = true
	}
	if !set["metrics"] && c.MetricsAddr != "" {
		opt.MetricsAddr = c.MetricsAddr
	}
	if !set["nats"] && c.NATSURL != "" {
		opt.NATSURL = c.NATSURL
	}
	if !set["nats-subject"] && c.NATSSubject != "" {
		opt.NATSSubject = c.NATSSubject
	}

	slog.Debug("loaded config", "file", opt.ConfigFile)
	return nil
}

func cameraLoop(ctx context.Context, sdk SDK, opt Options) error {
	sess, err := OpenSession(sdk, SessionOptions{AllowOpenFailure: opt.AllowOpenFailure})
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.Error("failed to close device session", "err", err)
		} else {
			slog.Info("device session closed")
		}
	}()

	deviceID := sess.Info().ID()
	saver, err := NewImageSaver(ctx, deviceID, opt.Save)
	if err != nil {
		return err
	}
	defer saver.Close()

	var notifier Notifier
	if opt.NATSURL != "" {
		n, err := NewNATSNotifier(opt.NATSURL, opt.NATSSubject)
		if err != nil {
			slog.Warn("frame events disabled", "err", err)
		} else {
			notifier = n
			defer n.Close()
		}
	}

	if opt.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, opt.MetricsAddr); err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	dev, err := sess.Take()
	if err != nil {
		return err
	}

	prefix := opt.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	grabber := NewGrabber(dev, GrabberOptions{
		PollTimeout: opt.PollTimeout,
		PayloadSize: sess.PayloadSize(),
		Namer:       FileNamer{Prefix: prefix, Sequence: &Sequence{}},
		Encoder:     imaging.JPEGEncoder{Quality: opt.Quality},
		Saver:       saver,
		Notifier:    notifier,
		DeviceID:    deviceID,
	})

	done := make(chan error, 1)
	go func() {
		done <- grabber.Run(ctx)
	}()
	slog.Info("capture loop started", "device", deviceID, "save", opt.Save)

	return <-done
}

type DevicesOptions struct {
	USB bool
}

// RunDevices lists attached devices without opening any of them.
func RunDevices(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	opt := DevicesOptions{}

	fs.BoolVar(&opt.USB, "usb", false, "include USB3 devices")

	if err := fs.Parse(args); err != nil {
		return err
	}

	_, err := listDevices(mvsSDK{}, opt)
	return err
}

func listDevices(sdk SDK, opt DevicesOptions) ([]mvs.DeviceInfo, error) {
	slog.Info("camera sdk", "version", sdk.Version())

	layers := mvs.GigEDevice
	if opt.USB {
		layers |= mvs.USBDevice
	}
	devices, err := sdk.EnumDevices(layers)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}

	for i, info := range devices {
		logDevice(i, info)
	}
	return devices, nil
}
