package capture

import "testing"

func TestSources_DisplaysBeforeWindows(t *testing.T) {
	useScreenProvider(t, &fakeScreenProvider{
		displays: []uint32{1, 2},
		windows: []WindowInfo{
			{ID: 100, Layer: 0, OnScreen: true, Title: "editor"},
			{ID: 101, Layer: 0, OnScreen: true, Title: "terminal"},
		},
	})

	got := Sources()
	want := []CaptureSource{
		DisplaySource(1),
		DisplaySource(2),
		WindowSource(100),
		WindowSource(101),
	}
	if len(got) != len(want) {
		t.Fatalf("Sources returned %d entries, want %d", len(got), len(want))
	}
	for i, s := range want {
		if got[i] != s {
			t.Errorf("Sources[%d] = %v, want %v", i, got[i], s)
		}
	}
}

func TestWindows_FiltersLayerAndVisibility(t *testing.T) {
	useScreenProvider(t, &fakeScreenProvider{
		windows: []WindowInfo{
			{ID: 100, Layer: 0, OnScreen: true},
			{ID: 101, Layer: 3, OnScreen: true},  // overlay layer
			{ID: 102, Layer: 0, OnScreen: false}, // minimized
		},
	})

	got := Windows()
	if len(got) != 1 {
		t.Fatalf("Windows returned %d entries, want 1", len(got))
	}
	if got[0] != WindowSource(100) {
		t.Errorf("Windows[0] = %v, want window 100", got[0])
	}
}

func TestEnumeration_EmptyWithoutFailure(t *testing.T) {
	t.Run("no displays reported", func(t *testing.T) {
		useScreenProvider(t, &fakeScreenProvider{})
		if got := Displays(); len(got) != 0 {
			t.Errorf("Displays = %v, want empty", got)
		}
		if got := Sources(); len(got) != 0 {
			t.Errorf("Sources = %v, want empty", got)
		}
	})

	t.Run("no provider registered", func(t *testing.T) {
		useScreenProvider(t, nil)
		if got := Sources(); len(got) != 0 {
			t.Errorf("Sources = %v, want empty", got)
		}
	})
}

func TestCaptureSource_String(t *testing.T) {
	tests := []struct {
		source CaptureSource
		want   string
	}{
		{DisplaySource(1), "display(1)"},
		{WindowSource(42), "window(42)"},
	}
	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
