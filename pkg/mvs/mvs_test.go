package mvs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPv4(t *testing.T) {
	assert.Equal(t, "192.168.1.64", IPv4(0xc0a80140))
	assert.Equal(t, "0.0.0.0", IPv4(0))
	assert.Equal(t, "255.255.255.255", IPv4(0xffffffff))

	d := DeviceInfo{CurrentIP: 0x0a000102}
	assert.Equal(t, "10.0.1.2", d.IP())
}

func TestCharString(t *testing.T) {
	raw := make([]byte, 32)
	copy(raw, "MV-CE013-50GC")
	assert.Equal(t, "MV-CE013-50GC", CharString(raw))
	assert.Equal(t, "unterminated", CharString([]byte("unterminated")))
	assert.Equal(t, "", CharString(make([]byte, 16)))
}

func TestDeviceID(t *testing.T) {
	assert.Equal(t, "00D12345678", DeviceInfo{ModelName: "MV-CE013-50GC", SerialNumber: "00D12345678"}.ID())
	assert.Equal(t, "MV-CE013-50GC", DeviceInfo{ModelName: "MV-CE013-50GC"}.ID())
}

func TestStatus(t *testing.T) {
	var err error = fmt.Errorf("get image buffer: %w", StatusNoData)

	var status Status
	assert.True(t, errors.As(err, &status))
	assert.Equal(t, StatusNoData, status)
	assert.Contains(t, err.Error(), "no data")

	assert.Equal(t, "mvs: status 0x80000106", Status(0x80000106).Error())
}

func TestTLayerTypeString(t *testing.T) {
	assert.Equal(t, "GigE Device", GigEDevice.String())
	assert.Equal(t, "USB3 Device", USBDevice.String())
	assert.Equal(t, "Unknown Device (0x40)", TLayerType(0x40).String())
}
