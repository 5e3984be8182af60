// Package capture provides local video capture primitives for feeding a
// WebRTC-based media engine: cameras, whole displays, single windows, and
// caller-pushed pixel buffers, unified behind one track type.
//
// Key pieces include:
//   - LocalVideoTrack pairing one capturer with lifecycle control
//     (Start/Stop, and in-place Restart for camera tracks)
//   - Capture source enumeration (Displays, Windows, Sources)
//   - Deterministic camera format and frame-rate negotiation
//   - VideoSink, the delivery contract every capturer variant shares
//   - LocalTrack, a webrtc.TrackLocal the engine publishes through
//   - EngineDelegate, the callback contract for engine-level events
//
// # Architecture
//
//	enumerator -> CaptureSource -> capturer -> VideoSink -> wrapped engine
//	track.Start()/Stop()/Restart() drive the capturer's lifecycle
//
// # Native Libraries
//
// On Darwin the platform providers load libcapture_platform.dylib, a thin
// AVFoundation/CoreGraphics shim, via purego (CGO_ENABLED=0). Set
// CAPTURE_PLATFORM_LIB_PATH to the directory containing it. Other
// platforms build with no provider registered: enumeration returns empty
// and camera creation fails with ErrNoDevice.
//
// # Build Tags
//
//   - nocapture: disable the native platform providers
//
// Frame delivery happens on unspecified worker goroutines; sinks and
// delegates must not assume any particular calling context.
package capture
