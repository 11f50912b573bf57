package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mvs "github.com/mpoegel/hikgrab/pkg/mvs"
)

const (
	PacketSizeKey  = "GevSCPSPacketSize"
	TriggerModeKey = "TriggerMode"
	PayloadSizeKey = "PayloadSize"
)

var (
	ErrNoDevices    = errors.New("no devices found")
	ErrSessionTaken = errors.New("device session already taken")
)

// SDK is the part of the camera SDK needed to find and open a device.
type SDK interface {
	Version() string
	EnumDevices(layers mvs.TLayerType) ([]mvs.DeviceInfo, error)
	CreateHandle(info mvs.DeviceInfo) (Device, error)
}

// Device is an SDK device handle. *mvs.Handle implements it.
type Device interface {
	Open(accessMode uint32, switchoverKey uint16) error
	OptimalPacketSize() int
	SetIntValue(key string, value uint32) error
	GetIntValue(key string) (uint32, error)
	SetEnumValue(key string, value uint32) error
	StartGrabbing() error
	StopGrabbing() error
	GetImageBuffer(timeout time.Duration) (*mvs.Frame, error)
	FreeImageBuffer(frame *mvs.Frame) error
	Close() error
	Destroy() error
}

type mvsSDK struct{}

func (mvsSDK) Version() string {
	return mvs.Version()
}

func (mvsSDK) EnumDevices(layers mvs.TLayerType) ([]mvs.DeviceInfo, error) {
	return mvs.EnumDevices(layers)
}

func (mvsSDK) CreateHandle(info mvs.DeviceInfo) (Device, error) {
	h, err := mvs.CreateHandle(info)
	if err != nil {
		return nil, err
	}
	return h, nil
}

type SessionOptions struct {
	// AllowOpenFailure keeps configuring a device that refused exclusive
	// access instead of failing.
	AllowOpenFailure bool
}

// Session owns one device from handle creation to destruction.
type Session struct {
	info        mvs.DeviceInfo
	dev         Device
	payloadSize int

	mu       sync.Mutex
	opened   bool
	grabbing bool
	taken    bool
}

// OpenSession brings the first GigE device to the grabbing state. On
// failure everything acquired so far is released.
func OpenSession(sdk SDK, opt SessionOptions) (*Session, error) {
	slog.Info("camera sdk", "version", sdk.Version())

	devices, err := sdk.EnumDevices(mvs.GigEDevice)
	if err != nil {
		return nil, fmt.Errorf("enum devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	slog.Info("devices detected", "count", len(devices))

	info := devices[0]
	logDevice(0, info)

	dev, err := sdk.CreateHandle(info)
	slog.Debug("create handle", "err", err)
	if err != nil {
		return nil, fmt.Errorf("create device handle: %w", err)
	}

	s := &Session{info: info, dev: dev}
	if err := s.configure(opt); err != nil {
		if cerr := s.Close(); cerr != nil {
			slog.Warn("failed to release device", "err", cerr)
		}
		return nil, err
	}
	return s, nil
}

func (s *Session) configure(opt SessionOptions) error {
	err := s.dev.Open(mvs.AccessExclusive, 0)
	slog.Debug("open device", "err", err)
	if err != nil {
		if !opt.AllowOpenFailure {
			return fmt.Errorf("open device: %w", err)
		}
		slog.Warn("cannot open device, continuing anyway", "err", err)
	} else {
		s.opened = true
	}

	if packetSize := s.dev.OptimalPacketSize(); packetSize > 0 {
		if err := s.dev.SetIntValue(PacketSizeKey, uint32(packetSize)); err != nil {
			slog.Warn("setting packet size failed", "packetSize", packetSize, "err", err)
		} else {
			slog.Debug("packet size set", "packetSize", packetSize)
		}
	} else {
		slog.Warn("getting packet size failed", "packetSize", packetSize)
	}

	err = s.dev.SetEnumValue(TriggerModeKey, mvs.TriggerModeOff)
	slog.Debug("trigger mode off", "err", err)
	if err != nil {
		return fmt.Errorf("set trigger mode: %w", err)
	}

	payloadSize, err := s.dev.GetIntValue(PayloadSizeKey)
	slog.Debug("payload size", "payloadSize", payloadSize, "err", err)
	if err != nil {
		return fmt.Errorf("get payload size: %w", err)
	}
	s.payloadSize = int(payloadSize)

	if err := s.dev.StartGrabbing(); err != nil {
		return fmt.Errorf("start grabbing: %w", err)
	}
	s.grabbing = true
	slog.Info("grabbing started", "device", s.info.ID(), "payloadSize", s.payloadSize)

	return nil
}

func (s *Session) Info() mvs.DeviceInfo {
	return s.info
}

// PayloadSize is the number of bytes of one frame at the configured format.
func (s *Session) PayloadSize() int {
	return s.payloadSize
}

// Take hands the device to its single consumer.
func (s *Session) Take() (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taken || s.dev == nil {
		return nil, ErrSessionTaken
	}
	s.taken = true
	return s.dev, nil
}

// Close stops grabbing, closes the device and destroys the handle. The
// consumer of Take must have stopped using the device.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return nil
	}

	var errs []error
	if s.grabbing {
		if err := s.dev.StopGrabbing(); err != nil {
			errs = append(errs, fmt.Errorf("stop grabbing: %w", err))
		}
		s.grabbing = false
	}
	if s.opened {
		if err := s.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close device: %w", err))
		}
		s.opened = false
	}
	if err := s.dev.Destroy(); err != nil {
		errs = append(errs, fmt.Errorf("destroy handle: %w", err))
	}
	s.dev = nil

	return errors.Join(errs...)
}

func logDevice(index int, info mvs.DeviceInfo) {
	attrs := []any{
		"index", index,
		"tlayer", info.TLayerType.String(),
		"model", info.ModelName,
	}
	if info.SerialNumber != "" {
		attrs = append(attrs, "serial", info.SerialNumber)
	}
	if info.TLayerType == mvs.GigEDevice {
		attrs = append(attrs, "ip", info.IP())
	}
	slog.Info("found device", attrs...)
}
