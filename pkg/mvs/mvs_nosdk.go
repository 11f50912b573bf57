//go:build !mvs

package mvs

import "time"

func Version() string {
	return "unavailable"
}

func EnumDevices(layers TLayerType) ([]DeviceInfo, error) {
	return nil, ErrNoSDK
}

type Handle struct{}

func CreateHandle(info DeviceInfo) (*Handle, error) {
	return nil, ErrNoSDK
}

func (h *Handle) Open(accessMode uint32, switchoverKey uint16) error { return ErrNoSDK }
func (h *Handle) OptimalPacketSize() int { return -1 }
func (h *Handle) SetIntValue(key string, value uint32) error { return ErrNoSDK }
func (h *Handle) GetIntValue(key string) (uint32, error) { return 0, ErrNoSDK }
func (h *Handle) SetEnumValue(key string, value uint32) error { return ErrNoSDK }
func (h *Handle) StartGrabbing() error { return ErrNoSDK }
func (h *Handle) StopGrabbing() error { return ErrNoSDK }
func (h *Handle) FreeImageBuffer(frame *Frame) error { return ErrNoSDK }
func (h *Handle) Close() error { return ErrNoSDK }
func (h *Handle) Destroy() error { return ErrNoSDK }

func (h *Handle) GetImageBuffer(timeout time.Duration) (*Frame, error) {
	return nil, ErrNoSDK
}
