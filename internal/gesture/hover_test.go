package gesture

import "testing"

func testLayout() []KeyRect {
	return []KeyRect{
		{Key: "a", X: 0, Y: 0, Width: 50, Height: 50},
		{Key: "b", X: 60, Y: 0, Width: 50, Height: 50},
		{Key: "wide", X: 0, Y: 0, Width: 200, Height: 100}, // overlaps a and b
	}
}

func TestKeyRect_Contains(t *testing.T) {
	r := KeyRect{Key: "k", X: 10, Y: 20, Width: 30, Height: 40}

	tests := []struct {
		x, y float64
		want bool
	}{
		{10, 20, true}, // top-left corner
		{40, 60, true}, // bottom-right corner
		{25, 40, true},
		{9.9, 20, false},
		{40.1, 60, false},
		{25, 60.1, false},
	}

	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestHoverDetector_KeyAt(t *testing.T) {
	d := NewHoverDetector(3)

	t.Run("no layout never hovers", func(t *testing.T) {
		if key := d.KeyAt(10, 10); key != "" {
			t.Errorf("expected no key, got %q", key)
		}
		if key := d.Update(LabelPoint, Position{X: 10, Y: 10}, true); key != "" {
			t.Errorf("expected no key event, got %q", key)
		}
		if !d.State().Idle() {
			t.Errorf("expected idle state, got %+v", d.State())
		}
	})

	d.SetLayout(testLayout())

	t.Run("first match wins", func(t *testing.T) {
		if key := d.KeyAt(10, 10); key != "a" {
			t.Errorf("expected a, got %q", key)
		}
		if key := d.KeyAt(70, 10); key != "b" {
			t.Errorf("expected b, got %q", key)
		}
		if key := d.KeyAt(55, 10); key != "wide" {
			t.Errorf("expected wide in the gap, got %q", key)
		}
		if key := d.KeyAt(500, 500); key != "" {
			t.Errorf("expected no key outside layout, got %q", key)
		}
	})
}

func TestHoverDetector_DwellFiresOnce(t *testing.T) {
	const threshold = 30
	d := NewHoverDetector(threshold)
	d.SetLayout(testLayout())

	tip := Position{X: 10, Y: 10}
	fired := 0
	for i := 1; i <= threshold; i++ {
		key := d.Update(LabelPoint, tip, true)
		if key != "" {
			fired++
			if key != "a" {
				t.Errorf("expected key a, got %q", key)
			}
			if i != threshold {
				t.Errorf("fired on frame %d, want frame %d", i, threshold)
			}
			continue
		}

		state := d.State()
		if state.Key != "a" || state.DwellFrames != i {
			t.Fatalf("frame %d: unexpected state %+v", i, state)
		}
		if want := 100 * i / threshold; state.Confidence != want {
			t.Errorf("frame %d: confidence = %d, want %d", i, state.Confidence, want)
		}
	}

	if fired != 1 {
		t.Fatalf("expected exactly one key event, got %d", fired)
	}
	if !d.State().Idle() || d.State().DwellFrames != 0 {
		t.Errorf("expected idle after firing, got %+v", d.State())
	}

	// Holding on afterwards starts a fresh dwell rather than repeating.
	if key := d.Update(LabelPoint, tip, true); key != "" {
		t.Errorf("expected no immediate repeat, got %q", key)
	}
	if d.State().DwellFrames != 1 {
		t.Errorf("expected dwell restart at 1, got %d", d.State().DwellFrames)
	}
}

func TestHoverDetector_Interruption(t *testing.T) {
	d := NewHoverDetector(5)
	d.SetLayout(testLayout())
	tip := Position{X: 10, Y: 10}

	for i := 0; i < 4; i++ {
		d.Update(LabelPoint, tip, true)
	}
	if d.State().DwellFrames != 4 {
		t.Fatalf("expected 4 dwell frames, got %d", d.State().DwellFrames)
	}

	if key := d.Update(LabelFist, tip, true); key != "" {
		t.Errorf("expected no key when gesture changes, got %q", key)
	}
	if !d.State().Idle() || d.State().DwellFrames != 0 || d.State().Confidence != 0 {
		t.Errorf("expected reset state, got %+v", d.State())
	}

	// No partial credit: a new point needs the full threshold again.
	for i := 0; i < 4; i++ {
		if key := d.Update(LabelPoint, tip, true); key != "" {
			t.Fatalf("fired early on frame %d", i+1)
		}
	}
	if key := d.Update(LabelPoint, tip, true); key != "a" {
		t.Errorf("expected a on fifth frame, got %q", key)
	}
}

func TestHoverDetector_KeyChangeRestartsDwell(t *testing.T) {
	d := NewHoverDetector(10)
	d.SetLayout(testLayout())

	for i := 0; i < 5; i++ {
		d.Update(LabelPoint, Position{X: 10, Y: 10}, true)
	}
	d.Update(LabelPoint, Position{X: 70, Y: 10}, true)

	state := d.State()
	if state.Key != "b" || state.DwellFrames != 1 || state.Confidence != 10 {
		t.Errorf("expected fresh hover on b, got %+v", state)
	}
}

func TestHoverDetector_LeavingLayoutResets(t *testing.T) {
	d := NewHoverDetector(10)
	d.SetLayout(testLayout())

	d.Update(LabelPoint, Position{X: 10, Y: 10}, true)
	d.Update(LabelPoint, Position{X: 900, Y: 900}, true)

	if !d.State().Idle() {
		t.Errorf("expected idle when pointing at no key, got %+v", d.State())
	}
}

func TestHoverDetector_NoFingertip(t *testing.T) {
	d := NewHoverDetector(10)
	d.SetLayout(testLayout())

	d.Update(LabelPoint, Position{X: 10, Y: 10}, true)
	d.Update(LabelPoint, Position{}, false)

	if !d.State().Idle() {
		t.Errorf("expected idle without a fingertip, got %+v", d.State())
	}
}

func TestNewHoverDetector_DefaultThreshold(t *testing.T) {
	d := NewHoverDetector(0)
	d.SetLayout(testLayout())

	for i := 1; i < DefaultDwellThreshold; i++ {
		if key := d.Update(LabelPoint, Position{X: 10, Y: 10}, true); key != "" {
			t.Fatalf("fired on frame %d before default threshold", i)
		}
	}
	if key := d.Update(LabelPoint, Position{X: 10, Y: 10}, true); key != "a" {
		t.Errorf("expected a at default threshold, got %q", key)
	}
}
