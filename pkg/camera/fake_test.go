package camera

import (
	"fmt"
	"sync"
	"time"

	imaging "github.com/mpoegel/hikgrab/pkg/imaging"
	mvs "github.com/mpoegel/hikgrab/pkg/mvs"
)

type fakeSDK struct {
	devices []mvs.DeviceInfo
	enumErr error
	dev     *fakeDevice
	created int
}

func (s *fakeSDK) Version() string { return "0x04000000" }

func (s *fakeSDK) EnumDevices(layers mvs.TLayerType) ([]mvs.DeviceInfo, error) {
	return s.devices, s.enumErr
}

func (s *fakeSDK) CreateHandle(info mvs.DeviceInfo) (Device, error) {
	s.created++
	if s.dev == nil {
		return nil, mvs.StatusHandle
	}
	return s.dev, nil
}

func gigeCamera() mvs.DeviceInfo {
	return mvs.DeviceInfo{
		TLayerType:   mvs.GigEDevice,
		ModelName:    "MV-CA013-20GC",
		SerialNumber: "00D12345678",
		CurrentIP:    0xc0a80140,
	}
}

type fakePoll struct {
	frame *mvs.Frame
	err   error
}

type fakeDevice struct {
	mu    sync.Mutex
	calls []string
	freed []*mvs.Frame

	openErr    error
	setIntErr  error
	triggerErr error
	payloadErr error
	startErr   error

	packetSize  int
	payloadSize uint32

	polls []fakePoll
	// exhausted runs when a poll finds the script empty.
	exhausted func()
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{packetSize: 8164, payloadSize: 640 * 480 * 3}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDevice) Open(accessMode uint32, switchoverKey uint16) error {
	d.record("Open %d", accessMode)
	return d.openErr
}

func (d *fakeDevice) OptimalPacketSize() int {
	d.record("OptimalPacketSize")
	return d.packetSize
}

func (d *fakeDevice) SetIntValue(key string, value uint32) error {
	d.record("SetIntValue %s=%d", key, value)
	return d.setIntErr
}

func (d *fakeDevice) GetIntValue(key string) (uint32, error) {
	d.record("GetIntValue %s", key)
	if d.payloadErr != nil {
		return 0, d.payloadErr
	}
	return d.payloadSize, nil
}

func (d *fakeDevice) SetEnumValue(key string, value uint32) error {
	d.record("SetEnumValue %s=%d", key, value)
	return d.triggerErr
}

func (d *fakeDevice) StartGrabbing() error {
	d.record("StartGrabbing")
	return d.startErr
}

func (d *fakeDevice) StopGrabbing() error {
	d.record("StopGrabbing")
	return nil
}

func (d *fakeDevice) GetImageBuffer(timeout time.Duration) (*mvs.Frame, error) {
	d.record("GetImageBuffer %s", timeout)

	d.mu.Lock()
	if len(d.polls) == 0 {
		exhausted := d.exhausted
		d.mu.Unlock()
		if exhausted != nil {
			exhausted()
		}
		return nil, mvs.StatusNoData
	}
	p := d.polls[0]
	d.polls = d.polls[1:]
	d.mu.Unlock()

	return p.frame, p.err
}

func (d *fakeDevice) FreeImageBuffer(frame *mvs.Frame) error {
	d.record("FreeImageBuffer")
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freed = append(d.freed, frame)
	return nil
}

func (d *fakeDevice) Freed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.freed)
}

func (d *fakeDevice) Close() error {
	d.record("Close")
	return nil
}

func (d *fakeDevice) Destroy() error {
	d.record("Destroy")
	return nil
}

func rgbFrame(w, h int, fill byte) *mvs.Frame {
	data := make([]byte, w*h*3)
	for i := range data {
		data[i] = fill
	}
	return &mvs.Frame{
		Info: mvs.FrameInfo{
			Width:     uint32(w),
			Height:    uint32(h),
			PixelType: mvs.PixelTypeRGB8Packed,
			FrameLen:  uint32(len(data)),
		},
		Data: data,
	}
}

type encodeCall struct {
	width, height int
	first         byte
	ts            time.Time
}

type fakeEncoder struct {
	mu    sync.Mutex
	calls []encodeCall
	err   error
}

func (e *fakeEncoder) EncodeJPEG(img imaging.RGB, ts time.Time) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, encodeCall{width: img.Width, height: img.Height, first: img.Pix[0], ts: ts})
	if e.err != nil {
		return nil, e.err
	}
	return []byte(fmt.Sprintf("jpeg %dx%d", img.Width, img.Height)), nil
}

type memSaver struct {
	mu     sync.Mutex
	names  []string
	files  map[string][]byte
	failOn map[string]error
	closed bool
}

func newMemSaver() *memSaver {
	return &memSaver{files: map[string][]byte{}, failOn: map[string]error{}}
}

func (s *memSaver) Save(name string, jpeg []byte, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[name]; err != nil {
		return err
	}
	s.names = append(s.names, name)
	s.files[name] = jpeg
	return nil
}

func (s *memSaver) Close() {
	s.closed = true
}

type memNotifier struct {
	events []FrameEvent
}

func (n *memNotifier) Notify(ev FrameEvent) error {
	n.events = append(n.events, ev)
	return nil
}

func (n *memNotifier) Close() {}
