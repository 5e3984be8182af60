package capture

// Camera format negotiation. Selection is deterministic and pure given the
// same device and format lists: the same options always negotiate the same
// device, format, and frame rate.

// Equal reports value equality of two formats, including frame-rate ranges.
func (f CameraFormat) Equal(other CameraFormat) bool {
	if f.Width != other.Width || f.Height != other.Height {
		return false
	}
	if len(f.FrameRateRanges) != len(other.FrameRateRanges) {
		return false
	}
	for i, r := range f.FrameRateRanges {
		if r != other.FrameRateRanges[i] {
			return false
		}
	}
	return true
}

// selectCamera returns the first device matching the requested position,
// falling back to the first device reporting an unspecified position.
func selectCamera(devices []CameraDevice, position CameraPosition) (CameraDevice, error) {
	for _, d := range devices {
		if d.Position == position {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.Position == PositionUnspecified {
			return d, nil
		}
	}
	return CameraDevice{}, ErrNoDevice
}

// selectFormat picks the device format closest to the target dimensions,
// scored by |Δwidth| + |Δheight| with ties resolving to the first format in
// enumeration order. A format equal to preferred wins immediately.
func selectFormat(formats []CameraFormat, target Dimensions, preferred *CameraFormat) (CameraFormat, bool) {
	var (
		best     CameraFormat
		bestDiff = -1
	)
	for _, f := range formats {
		if preferred != nil && f.Equal(*preferred) {
			return f, true
		}

		diff := absDiff(f.Width, target.Width) + absDiff(f.Height, target.Height)
		if bestDiff < 0 || diff < bestDiff {
			best = f
			bestDiff = diff
		}
	}
	return best, bestDiff >= 0
}

// frameRateBounds returns the union of the format's frame-rate ranges:
// the smallest minimum and largest maximum seen, starting from the
// sentinel pair (60, 0).
func frameRateBounds(format CameraFormat) (minRate, maxRate int) {
	minRate, maxRate = 60, 0
	for _, r := range format.FrameRateRanges {
		if r.Min < minRate {
			minRate = r.Min
		}
		if r.Max > maxRate {
			maxRate = r.Max
		}
	}
	return minRate, maxRate
}

// negotiate resolves capture options against a camera provider's device and
// format lists. It does not touch platform capture state.
func negotiate(provider CameraProvider, opts CaptureOptions) (CameraDevice, CameraFormat, error) {
	if provider == nil {
		return CameraDevice{}, CameraFormat{}, ErrNoDevice
	}

	device, err := selectCamera(provider.ListCameras(), opts.Position)
	if err != nil {
		return CameraDevice{}, CameraFormat{}, err
	}

	format, ok := selectFormat(provider.Formats(device.ID), opts.Dimensions, opts.PreferredFormat)
	if !ok {
		return CameraDevice{}, CameraFormat{}, ErrNoDevice
	}

	minRate, maxRate := frameRateBounds(format)
	if opts.FrameRate < minRate || opts.FrameRate > maxRate {
		return CameraDevice{}, CameraFormat{}, &UnsupportedFrameRateError{
			Requested: opts.FrameRate,
			Min:       minRate,
			Max:       maxRate,
		}
	}

	return device, format, nil
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
