//go:build darwin && !nocapture

package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Darwin backend: purego bindings to libcapture_platform.dylib, a thin
// AVFoundation/CoreGraphics shim. Camera sessions and display streams
// deliver frames through C callbacks; window contents are grabbed as
// one-shot BGRA snapshots.

// AVFoundation permission status values
const (
	avAuthorizationNotDetermined = 0
	avAuthorizationRestricted    = 1
	avAuthorizationDenied        = 2
	avAuthorizationAuthorized    = 3
)

// capStatusBusy is returned by cap_camera_start and cap_display_start when
// the shim holds a running session for the target that it cannot restart in
// place.
const capStatusBusy = 2

var (
	platOnce    sync.Once
	platHandle  uintptr
	platInitErr error
	platLoaded  bool
)

// libcapture_platform function pointers
var (
	capDisplayCount        func() int32
	capDisplayID           func(index int32) uint32
	capMainDisplaySize     func(width, height uintptr) int32
	capWindowCount         func() int32
	capWindowInfo          func(index int32, id, layer, onScreen uintptr) int32
	capWindowTitle         func(index int32) uintptr
	capWindowSnapshot      func(id uint32, width, height uintptr) uintptr
	capFreePixels          func(ptr uintptr)
	capFreeString          func(ptr uintptr)
	capCameraCount         func() int32
	capCameraID            func(index int32) uintptr
	capCameraLabel         func(index int32) uintptr
	capCameraPosition      func(index int32) int32
	capCameraFormatCount   func(deviceID uintptr) int32
	capCameraFormat        func(deviceID uintptr, index int32, width, height, rangeCount uintptr) int32
	capCameraFormatRange   func(deviceID uintptr, index, rangeIndex int32, minFPS, maxFPS uintptr) int32
	capCameraPermission    func() int32
	capCameraOpen          func(deviceID uintptr, width, height, fps int32, frameCB, stopCB, userData uintptr) uint64
	capCameraStart         func(handle uint64) int32
	capCameraStop          func(handle uint64) int32
	capCameraDestroy       func(handle uint64)
	capDisplayOpen         func(id uint32, frameCB, userData uintptr, width, height uintptr) uint64
	capDisplayStart        func(handle uint64) int32
	capDisplayStop         func(handle uint64)
	capDisplayDestroy      func(handle uint64)
	capLastError           func() uintptr
)

func initPlatform() {
	platOnce.Do(func() {
		libName := "libcapture_platform.dylib"
		searchPaths := []string{
			os.Getenv("CAPTURE_PLATFORM_LIB_PATH"),
		}
		if exe, err := os.Executable(); err == nil {
			searchPaths = append(searchPaths, filepath.Dir(exe))
		}
		searchPaths = append(searchPaths, "build", "../build", "/usr/local/lib")

		var libPath string
		for _, p := range searchPaths {
			if p == "" {
				continue
			}
			candidate := filepath.Join(p, libName)
			if _, err := os.Stat(candidate); err == nil {
				libPath = candidate
				break
			}
		}

		if libPath == "" {
			platInitErr = fmt.Errorf("%s not found", libName)
			return
		}

		var err error
		platHandle, err = purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			platInitErr = fmt.Errorf("failed to load %s: %w", libPath, err)
			return
		}

		purego.RegisterLibFunc(&capDisplayCount, platHandle, "cap_display_count")
		purego.RegisterLibFunc(&capDisplayID, platHandle, "cap_display_id")
		purego.RegisterLibFunc(&capMainDisplaySize, platHandle, "cap_main_display_size")
		purego.RegisterLibFunc(&capWindowCount, platHandle, "cap_window_count")
		purego.RegisterLibFunc(&capWindowInfo, platHandle, "cap_window_info")
		purego.RegisterLibFunc(&capWindowTitle, platHandle, "cap_window_title")
		purego.RegisterLibFunc(&capWindowSnapshot, platHandle, "cap_window_snapshot")
		purego.RegisterLibFunc(&capFreePixels, platHandle, "cap_free_pixels")
		purego.RegisterLibFunc(&capFreeString, platHandle, "cap_free_string")
		purego.RegisterLibFunc(&capCameraCount, platHandle, "cap_camera_count")
		purego.RegisterLibFunc(&capCameraID, platHandle, "cap_camera_id")
		purego.RegisterLibFunc(&capCameraLabel, platHandle, "cap_camera_label")
		purego.RegisterLibFunc(&capCameraPosition, platHandle, "cap_camera_position")
		purego.RegisterLibFunc(&capCameraFormatCount, platHandle, "cap_camera_format_count")
		purego.RegisterLibFunc(&capCameraFormat, platHandle, "cap_camera_format")
		purego.RegisterLibFunc(&capCameraFormatRange, platHandle, "cap_camera_format_range")
		purego.RegisterLibFunc(&capCameraPermission, platHandle, "cap_camera_permission_status")
		purego.RegisterLibFunc(&capCameraOpen, platHandle, "cap_camera_open")
		purego.RegisterLibFunc(&capCameraStart, platHandle, "cap_camera_start")
		purego.RegisterLibFunc(&capCameraStop, platHandle, "cap_camera_stop")
		purego.RegisterLibFunc(&capCameraDestroy, platHandle, "cap_camera_destroy")
		purego.RegisterLibFunc(&capDisplayOpen, platHandle, "cap_display_open")
		purego.RegisterLibFunc(&capDisplayStart, platHandle, "cap_display_start")
		purego.RegisterLibFunc(&capDisplayStop, platHandle, "cap_display_stop")
		purego.RegisterLibFunc(&capDisplayDestroy, platHandle, "cap_display_destroy")
		purego.RegisterLibFunc(&capLastError, platHandle, "cap_last_error")

		platLoaded = true
	})
}

// IsPlatformAvailable returns true if the native capture shim is loaded.
func IsPlatformAvailable() bool {
	initPlatform()
	return platLoaded
}

func lastPlatformError() string {
	if ptr := capLastError(); ptr != 0 {
		return goStringFromPtr(ptr)
	}
	return "unknown error"
}

// goStringFromPtr converts a C string pointer to a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for {
		if *(*byte)(unsafe.Pointer(uintptr(p) + uintptr(length))) == 0 {
			break
		}
		length++
		if length > 1024 { // Safety limit
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

func cString(s string) (uintptr, []byte) {
	if s == "" {
		return 0, nil
	}
	buf := append([]byte(s), 0)
	return uintptr(unsafe.Pointer(&buf[0])), buf
}

// Global callback routing for purego: sessions register under an opaque
// id passed as userData to the C side.
var (
	sessionsMu      sync.RWMutex
	cameraSessions  = make(map[uintptr]*darwinCameraSession)
	displaySessions = make(map[uintptr]*darwinDisplaySession)
	sessionCounter  uintptr

	cameraFrameCB  uintptr
	cameraStopCB   uintptr
	displayFrameCB uintptr
	callbackOnce   sync.Once
)

func initCallbacks() {
	callbackOnce.Do(func() {
		cameraFrameCB = purego.NewCallback(cameraFrameHandler)
		cameraStopCB = purego.NewCallback(cameraStopHandler)
		displayFrameCB = purego.NewCallback(displayFrameHandler)
	})
}

func nextSessionID() uintptr {
	sessionsMu.Lock()
	sessionCounter++
	id := sessionCounter
	sessionsMu.Unlock()
	return id
}

// cameraFrameHandler receives I420 planes from the AVFoundation callback
// queue and forwards a copied frame to the session sink.
func cameraFrameHandler(
	yPlane uintptr, yStride int32,
	uPlane uintptr, uStride int32,
	vPlane uintptr, vStride int32,
	width, height int32,
	timestampNs int64,
	userData uintptr,
) {
	sessionsMu.RLock()
	session, ok := cameraSessions[userData]
	sessionsMu.RUnlock()
	if !ok {
		return
	}

	// Copy plane data: the C buffers are only valid during the callback.
	ySize := int(yStride) * int(height)
	uvHeight := int(height) / 2
	uSize := int(uStride) * uvHeight
	vSize := int(vStride) * uvHeight

	yData := make([]byte, ySize)
	uData := make([]byte, uSize)
	vData := make([]byte, vSize)
	copy(yData, unsafe.Slice((*byte)(unsafe.Pointer(yPlane)), ySize))
	copy(uData, unsafe.Slice((*byte)(unsafe.Pointer(uPlane)), uSize))
	copy(vData, unsafe.Slice((*byte)(unsafe.Pointer(vPlane)), vSize))

	session.sink.OnFrame(&VideoFrame{
		Data:      [][]byte{yData, uData, vData},
		Stride:    []int{int(yStride), int(uStride), int(vStride)},
		Width:     int(width),
		Height:    int(height),
		Format:    PixelFormatI420,
		Timestamp: timestampNs,
	})
}

// cameraStopHandler fires once the platform session has fully ceased
// producing frames.
func cameraStopHandler(userData uintptr) {
	sessionsMu.Lock()
	session, ok := cameraSessions[userData]
	delete(cameraSessions, userData)
	sessionsMu.Unlock()
	if !ok {
		return
	}

	capCameraDestroy(session.handle)
	close(session.stopped)
}

// displayFrameHandler receives BGRA frames from the display stream.
func displayFrameHandler(pixels uintptr, width, height int32, timestampNs int64, userData uintptr) {
	sessionsMu.RLock()
	session, ok := displaySessions[userData]
	sessionsMu.RUnlock()
	if !ok {
		return
	}

	size := int(width) * int(height) * 4
	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(pixels)), size))

	session.sink.OnFrame(BGRAFrame(data, int(width), int(height), timestampNs))
}

type darwinCameraSession struct {
	handle    uint64
	sessionID uintptr
	sink      VideoSink
	stopOnce  sync.Once
	stopped   chan struct{}
}

func (s *darwinCameraSession) Stop() <-chan struct{} {
	s.stopOnce.Do(func() {
		capCameraStop(s.handle)
	})
	return s.stopped
}

type darwinDisplaySession struct {
	handle    uint64
	sessionID uintptr
	sink      VideoSink
	stopOnce  sync.Once
}

func (s *darwinDisplaySession) Stop() {
	s.stopOnce.Do(func() {
		capDisplayStop(s.handle)
		sessionsMu.Lock()
		delete(displaySessions, s.sessionID)
		sessionsMu.Unlock()
		capDisplayDestroy(s.handle)
	})
}

// darwinCameraProvider implements CameraProvider over AVFoundation.
type darwinCameraProvider struct{}

func (darwinCameraProvider) ListCameras() []CameraDevice {
	count := capCameraCount()
	devices := make([]CameraDevice, 0, count)
	for i := int32(0); i < count; i++ {
		idPtr := capCameraID(i)
		labelPtr := capCameraLabel(i)
		if idPtr == 0 {
			continue
		}
		devices = append(devices, CameraDevice{
			ID:       goStringFromPtr(idPtr),
			Label:    goStringFromPtr(labelPtr),
			Position: CameraPosition(capCameraPosition(i)),
		})
		capFreeString(idPtr)
		if labelPtr != 0 {
			capFreeString(labelPtr)
		}
	}
	return devices
}

func (darwinCameraProvider) Formats(deviceID string) []CameraFormat {
	idPtr, idBuf := cString(deviceID)
	defer runtime.KeepAlive(idBuf)

	count := capCameraFormatCount(idPtr)
	formats := make([]CameraFormat, 0, count)
	for i := int32(0); i < count; i++ {
		var w, h, ranges int32
		if capCameraFormat(idPtr,
			i,
			uintptr(unsafe.Pointer(&w)),
			uintptr(unsafe.Pointer(&h)),
			uintptr(unsafe.Pointer(&ranges))) != 0 {
			continue
		}
		f := CameraFormat{Width: int(w), Height: int(h)}
		for r := int32(0); r < ranges; r++ {
			var minFPS, maxFPS int32
			if capCameraFormatRange(idPtr, i, r,
				uintptr(unsafe.Pointer(&minFPS)),
				uintptr(unsafe.Pointer(&maxFPS))) == 0 {
				f.FrameRateRanges = append(f.FrameRateRanges, FrameRateRange{Min: int(minFPS), Max: int(maxFPS)})
			}
		}
		formats = append(formats, f)
	}
	return formats
}

func (darwinCameraProvider) StartSession(deviceID string, format CameraFormat, frameRate int, sink VideoSink) (CameraSession, error) {
	switch capCameraPermission() {
	case avAuthorizationDenied, avAuthorizationRestricted:
		return nil, fmt.Errorf("camera permission denied")
	}

	initCallbacks()

	sessionID := nextSessionID()
	session := &darwinCameraSession{
		sessionID: sessionID,
		sink:      sink,
		stopped:   make(chan struct{}),
	}

	sessionsMu.Lock()
	cameraSessions[sessionID] = session
	sessionsMu.Unlock()

	idPtr, idBuf := cString(deviceID)
	handle := capCameraOpen(idPtr, int32(format.Width), int32(format.Height), int32(frameRate), cameraFrameCB, cameraStopCB, sessionID)
	runtime.KeepAlive(idBuf)
	if handle == 0 {
		sessionsMu.Lock()
		delete(cameraSessions, sessionID)
		sessionsMu.Unlock()
		return nil, fmt.Errorf("open camera: %s", lastPlatformError())
	}
	session.handle = handle

	if rc := capCameraStart(handle); rc != 0 {
		sessionsMu.Lock()
		delete(cameraSessions, sessionID)
		sessionsMu.Unlock()
		capCameraDestroy(handle)
		if rc == capStatusBusy {
			return nil, fmt.Errorf("start camera %s: %w", deviceID, ErrAlreadyRunning)
		}
		return nil, fmt.Errorf("start camera: %s", lastPlatformError())
	}

	return session, nil
}

// darwinScreenProvider implements ScreenProvider over CoreGraphics.
type darwinScreenProvider struct{}

func (darwinScreenProvider) Displays() []uint32 {
	count := capDisplayCount()
	ids := make([]uint32, 0, count)
	for i := int32(0); i < count; i++ {
		ids = append(ids, capDisplayID(i))
	}
	return ids
}

func (darwinScreenProvider) Windows() []WindowInfo {
	count := capWindowCount()
	windows := make([]WindowInfo, 0, count)
	for i := int32(0); i < count; i++ {
		var id uint32
		var layer, onScreen int32
		if capWindowInfo(i,
			uintptr(unsafe.Pointer(&id)),
			uintptr(unsafe.Pointer(&layer)),
			uintptr(unsafe.Pointer(&onScreen))) != 0 {
			continue
		}
		var title string
		if titlePtr := capWindowTitle(i); titlePtr != 0 {
			title = goStringFromPtr(titlePtr)
			capFreeString(titlePtr)
		}
		windows = append(windows, WindowInfo{
			ID:       id,
			Layer:    int(layer),
			OnScreen: onScreen != 0,
			Title:    title,
		})
	}
	return windows
}

func (darwinScreenProvider) SnapshotWindow(id uint32) *VideoFrame {
	var w, h int32
	pixels := capWindowSnapshot(id, uintptr(unsafe.Pointer(&w)), uintptr(unsafe.Pointer(&h)))
	if pixels == 0 || w <= 0 || h <= 0 {
		return nil
	}

	size := int(w) * int(h) * 4
	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(pixels)), size))
	capFreePixels(pixels)

	return BGRAFrame(data, int(w), int(h), 0)
}

func (darwinScreenProvider) StartDisplay(id uint32, sink VideoSink) (DisplaySession, Dimensions, error) {
	initCallbacks()

	sessionID := nextSessionID()
	session := &darwinDisplaySession{sessionID: sessionID, sink: sink}

	sessionsMu.Lock()
	displaySessions[sessionID] = session
	sessionsMu.Unlock()

	var w, h int32
	handle := capDisplayOpen(id, displayFrameCB, sessionID,
		uintptr(unsafe.Pointer(&w)), uintptr(unsafe.Pointer(&h)))
	if handle == 0 {
		sessionsMu.Lock()
		delete(displaySessions, sessionID)
		sessionsMu.Unlock()
		return nil, Dimensions{}, fmt.Errorf("open display %d: %s", id, lastPlatformError())
	}
	session.handle = handle

	if rc := capDisplayStart(handle); rc != 0 {
		session.Stop()
		if rc == capStatusBusy {
			return nil, Dimensions{}, fmt.Errorf("start display %d: %w", id, ErrAlreadyRunning)
		}
		return nil, Dimensions{}, fmt.Errorf("start display %d: %s", id, lastPlatformError())
	}

	return session, Dimensions{Width: int(w), Height: int(h)}, nil
}

func (darwinScreenProvider) MainDisplayDimensions() (Dimensions, bool) {
	var w, h int32
	if capMainDisplaySize(uintptr(unsafe.Pointer(&w)), uintptr(unsafe.Pointer(&h))) != 0 {
		return Dimensions{}, false
	}
	return Dimensions{Width: int(w), Height: int(h)}, true
}

func init() {
	initPlatform()
	if platLoaded {
		RegisterCameraProvider(darwinCameraProvider{})
		RegisterScreenProvider(darwinScreenProvider{})
	}
}
