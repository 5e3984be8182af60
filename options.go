package capture

// CameraPosition identifies which camera on the device to prefer.
type CameraPosition int

const (
	PositionUnspecified CameraPosition = iota
	PositionFront                      // User-facing camera
	PositionBack                       // Environment-facing camera
)

func (p CameraPosition) String() string {
	switch p {
	case PositionFront:
		return "front"
	case PositionBack:
		return "back"
	default:
		return "unspecified"
	}
}

// CaptureOptions configures a camera capture attempt. It is resolved once
// per start or restart and read-only thereafter; supply a fresh value on
// each Restart call.
type CaptureOptions struct {
	// Position selects the desired camera. The first device reporting an
	// unspecified position is used as a fallback when no exact match exists.
	Position CameraPosition

	// Dimensions is the target resolution. The negotiated format is the
	// supported format minimizing |Δwidth| + |Δheight|.
	Dimensions Dimensions

	// FrameRate is the target frame rate in frames per second. It must fall
	// within the union of the negotiated format's supported ranges.
	FrameRate int

	// PreferredFormat, when set, short-circuits format scoring: a device
	// format equal to it is selected immediately.
	PreferredFormat *CameraFormat
}

// DefaultCaptureOptions returns the default camera configuration:
// front camera, 1280x720 at 30 fps.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{
		Position:   PositionFront,
		Dimensions: Dimensions{Width: 1280, Height: 720},
		FrameRate:  30,
	}
}

// withDefaults fills unset fields so negotiation always has a real target.
func (o CaptureOptions) withDefaults() CaptureOptions {
	def := DefaultCaptureOptions()
	if o.Dimensions.IsZero() {
		o.Dimensions = def.Dimensions
	}
	if o.FrameRate <= 0 {
		o.FrameRate = def.FrameRate
	}
	return o
}
