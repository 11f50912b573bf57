// Package mvs is a thin binding to the Hikrobot MVS camera SDK
// (MvCameraControl). Build with -tags mvs to link against the vendor
// library under /opt/MVS; without the tag every entry point reports
// ErrNoSDK.
package mvs

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
)

// TLayerType selects the transport layer of a device.
type TLayerType uint32

const (
	GigEDevice TLayerType = 0x00000001
	IEEE1394   TLayerType = 0x00000002
	USBDevice  TLayerType = 0x00000004
	CameraLink TLayerType = 0x00000008
)

const (
	AccessExclusive uint32 = 1

	TriggerModeOff uint32 = 0
	TriggerModeOn  uint32 = 1
)

// PixelType mirrors MvGvspPixelType.
type PixelType uint32

const (
	PixelTypeMono8      PixelType = 0x01080001
	PixelTypeRGB8Packed PixelType = 0x02180014
	PixelTypeBGR8Packed PixelType = 0x02180015
)

var ErrNoSDK = errors.New("mvs: built without camera SDK, rebuild with -tags mvs")

// Status is a non-zero return code from an SDK call.
type Status uint32

const (
	StatusHandle    Status = 0x80000000
	StatusSupport   Status = 0x80000001
	StatusBufOver   Status = 0x80000002
	StatusCallOrder Status = 0x80000003
	StatusParameter Status = 0x80000004
	StatusNoData    Status = 0x80000007
	StatusAccess    Status = 0x80000203
	StatusBusy      Status = 0x80000204
)

func (s Status) Error() string {
	switch s {
	case StatusHandle:
		return "mvs: invalid handle (0x80000000)"
	case StatusCallOrder:
		return "mvs: function calling order error (0x80000003)"
	case StatusNoData:
		return "mvs: no data (0x80000007)"
	case StatusAccess:
		return "mvs: access denied (0x80000203)"
	case StatusBusy:
		return "mvs: device busy (0x80000204)"
	}
	return fmt.Sprintf("mvs: status 0x%08x", uint32(s))
}

// DeviceInfo is the subset of MV_CC_DEVICE_INFO this package exposes.
type DeviceInfo struct {
	TLayerType   TLayerType
	ModelName    string
	SerialNumber string
	// CurrentIP is the packed IPv4 address of a GigE device, zero otherwise.
	CurrentIP uint32

	ref any
}

// IP returns the dotted form of CurrentIP.
func (d DeviceInfo) IP() string {
	return IPv4(d.CurrentIP)
}

// ID identifies the device in logs and remote metadata.
func (d DeviceInfo) ID() string {
	if d.SerialNumber != "" {
		return d.SerialNumber
	}
	return d.ModelName
}

func (t TLayerType) String() string {
	switch t {
	case GigEDevice:
		return "GigE Device"
	case USBDevice:
		return "USB3 Device"
	case IEEE1394:
		return "1394 Device"
	case CameraLink:
		return "CameraLink Device"
	}
	return fmt.Sprintf("Unknown Device (0x%x)", uint32(t))
}

// IPv4 splits a packed address into octets, most significant first.
func IPv4(ip uint32) string {
	return netip.AddrFrom4([4]byte{
		byte((ip & 0xff000000) >> 24),
		byte((ip & 0x00ff0000) >> 16),
		byte((ip & 0x0000ff00) >> 8),
		byte(ip & 0x000000ff),
	}).String()
}

// CharString decodes a fixed size, NUL padded character array.
func CharString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

type FrameInfo struct {
	Width     uint32
	Height    uint32
	PixelType PixelType
	FrameNum  uint32
	FrameLen  uint32
}

// Frame is one acquired image buffer. Data points into SDK memory and is
// only valid until the frame is handed back with FreeImageBuffer.
type Frame struct {
	Info FrameInfo
	Data []byte

	ref any
}
