package capture

import "fmt"

// SourceKind identifies the type of screen-share capture target.
type SourceKind int

const (
	SourceKindDisplay SourceKind = iota // A whole display
	SourceKindWindow                    // A single window
)

func (k SourceKind) String() string {
	switch k {
	case SourceKindDisplay:
		return "display"
	case SourceKindWindow:
		return "window"
	default:
		return "unknown"
	}
}

// CaptureSource identifies a physical or virtual capture target. It is
// chosen at capturer construction and never changes for the lifetime of
// a capturer instance.
type CaptureSource struct {
	Kind SourceKind
	ID   uint32
}

// DisplaySource returns a source identifying a whole display.
func DisplaySource(id uint32) CaptureSource {
	return CaptureSource{Kind: SourceKindDisplay, ID: id}
}

// WindowSource returns a source identifying a single window.
func WindowSource(id uint32) CaptureSource {
	return CaptureSource{Kind: SourceKindWindow, ID: id}
}

func (s CaptureSource) String() string {
	return fmt.Sprintf("%s(%d)", s.Kind, s.ID)
}

// WindowInfo describes a window reported by the platform. Layer 0 holds
// ordinary application windows; desktop elements and overlays live on
// other layers.
type WindowInfo struct {
	ID       uint32
	Layer    int
	OnScreen bool
	Title    string
}

// Displays lists displays currently reported by the platform, in platform
// order. Enumeration never fails: absence of displays (or of a registered
// screen provider) yields an empty slice.
func Displays() []CaptureSource {
	provider := getScreenProvider()
	if provider == nil {
		return nil
	}

	ids := provider.Displays()
	sources := make([]CaptureSource, 0, len(ids))
	for _, id := range ids {
		sources = append(sources, DisplaySource(id))
	}
	return sources
}

// Windows lists shareable windows: on-screen, top-level (layer 0) windows
// only. Like Displays, it reflects current OS state and never fails.
func Windows() []CaptureSource {
	provider := getScreenProvider()
	if provider == nil {
		return nil
	}

	var sources []CaptureSource
	for _, w := range provider.Windows() {
		if w.Layer != 0 || !w.OnScreen {
			continue
		}
		sources = append(sources, WindowSource(w.ID))
	}
	return sources
}

// Sources concatenates Displays and Windows, displays first.
func Sources() []CaptureSource {
	return append(Displays(), Windows()...)
}
