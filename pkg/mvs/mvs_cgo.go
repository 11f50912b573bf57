//go:build mvs

package mvs

/*
#cgo CFLAGS: -I/opt/MVS/include
#cgo LDFLAGS: -Wl,-rpath=/opt/MVS/lib/64
#cgo LDFLAGS: -L/opt/MVS/lib/64
#cgo LDFLAGS: -lMvCameraControl
#include <stdlib.h>
#include "MvCameraControl.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"time"
	"unsafe"
)

var errForeignRef = errors.New("mvs: value was not produced by this SDK binding")

func check(nRet C.int) error {
	if nRet != C.MV_OK {
		return Status(uint32(nRet))
	}
	return nil
}

func Version() string {
	return fmt.Sprintf("0x%08x", uint32(C.MV_CC_GetSDKVersion()))
}

// EnumDevices lists the devices reachable over the given transport layers.
func EnumDevices(layers TLayerType) ([]DeviceInfo, error) {
	var stDeviceList C.MV_CC_DEVICE_INFO_LIST

	if err := check(C.MV_CC_EnumDevices(C.uint(layers), &stDeviceList)); err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, int(stDeviceList.nDeviceNum))
	for i := 0; i < int(stDeviceList.nDeviceNum); i++ {
		// the list is owned by the SDK; keep a private copy for CreateHandle
		raw := new(C.MV_CC_DEVICE_INFO)
		*raw = *stDeviceList.pDeviceInfo[i]

		info := DeviceInfo{TLayerType: TLayerType(raw.nTLayerType), ref: raw}
		switch info.TLayerType {
		case GigEDevice:
			gige := (*C.MV_GIGE_DEVICE_INFO)(unsafe.Pointer(&raw.SpecialInfo))
			info.ModelName = CharString(C.GoBytes(unsafe.Pointer(&gige.chModelName[0]), C.int(len(gige.chModelName))))
			info.SerialNumber = CharString(C.GoBytes(unsafe.Pointer(&gige.chSerialNumber[0]), C.int(len(gige.chSerialNumber))))
			info.CurrentIP = uint32(gige.nCurrentIp)
		case USBDevice:
			usb := (*C.MV_USB3_DEVICE_INFO)(unsafe.Pointer(&raw.SpecialInfo))
			info.ModelName = CharString(C.GoBytes(unsafe.Pointer(&usb.chModelName[0]), C.int(len(usb.chModelName))))
			info.SerialNumber = CharString(C.GoBytes(unsafe.Pointer(&usb.chSerialNumber[0]), C.int(len(usb.chSerialNumber))))
		}
		devices = append(devices, info)
	}

	return devices, nil
}

// Handle is an SDK device handle.
type Handle struct {
	handle unsafe.Pointer
}

func CreateHandle(info DeviceInfo) (*Handle, error) {
	raw, ok := info.ref.(*C.MV_CC_DEVICE_INFO)
	if !ok {
		return nil, errForeignRef
	}

	h := &Handle{}
	if err := check(C.MV_CC_CreateHandle(&h.handle, raw)); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handle) Open(accessMode uint32, switchoverKey uint16) error {
	return check(C.MV_CC_OpenDevice(h.handle, C.uint(accessMode), C.ushort(switchoverKey)))
}

// OptimalPacketSize is only meaningful for GigE devices; non-positive
// values are SDK errors.
func (h *Handle) OptimalPacketSize() int {
	return int(C.MV_CC_GetOptimalPacketSize(h.handle))
}

func (h *Handle) SetIntValue(key string, value uint32) error {
	cKey := C.CString(key)
	defer C.free(unsafe.Pointer(cKey))

	return check(C.MV_CC_SetIntValue(h.handle, cKey, C.uint(value)))
}

func (h *Handle) GetIntValue(key string) (uint32, error) {
	var stParam C.MVCC_INTVALUE

	cKey := C.CString(key)
	defer C.free(unsafe.Pointer(cKey))

	if err := check(C.MV_CC_GetIntValue(h.handle, cKey, &stParam)); err != nil {
		return 0, err
	}
	return uint32(stParam.nCurValue), nil
}

func (h *Handle) SetEnumValue(key string, value uint32) error {
	cKey := C.CString(key)
	defer C.free(unsafe.Pointer(cKey))

	return check(C.MV_CC_SetEnumValue(h.handle, cKey, C.uint(value)))
}

func (h *Handle) StartGrabbing() error {
	return check(C.MV_CC_StartGrabbing(h.handle))
}

func (h *Handle) StopGrabbing() error {
	return check(C.MV_CC_StopGrabbing(h.handle))
}

// GetImageBuffer waits up to timeout for the next frame. The returned frame
// must be released with FreeImageBuffer.
func (h *Handle) GetImageBuffer(timeout time.Duration) (*Frame, error) {
	stOutFrame := new(C.MV_FRAME_OUT)

	if err := check(C.MV_CC_GetImageBuffer(h.handle, stOutFrame, C.uint(timeout.Milliseconds()))); err != nil {
		return nil, err
	}

	info := FrameInfo{
		Width:     uint32(stOutFrame.stFrameInfo.nWidth),
		Height:    uint32(stOutFrame.stFrameInfo.nHeight),
		PixelType: PixelType(stOutFrame.stFrameInfo.enPixelType),
		FrameNum:  uint32(stOutFrame.stFrameInfo.nFrameNum),
		FrameLen:  uint32(stOutFrame.stFrameInfo.nFrameLen),
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(stOutFrame.pBufAddr)), int(info.FrameLen))

	return &Frame{Info: info, Data: data, ref: stOutFrame}, nil
}

func (h *Handle) FreeImageBuffer(frame *Frame) error {
	stOutFrame, ok := frame.ref.(*C.MV_FRAME_OUT)
	if !ok {
		return errForeignRef
	}
	frame.Data = nil
	return check(C.MV_CC_FreeImageBuffer(h.handle, stOutFrame))
}

// Close closes the device. The handle stays valid until Destroy.
func (h *Handle) Close() error {
	return check(C.MV_CC_CloseDevice(h.handle))
}

func (h *Handle) Destroy() error {
	return check(C.MV_CC_DestroyHandle(h.handle))
}
