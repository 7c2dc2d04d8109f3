package postprocess

import (
	"math"
	"testing"
)

type anchor struct {
	cx, cy, w, h float32
	scores       []float32
}

// buildTensor lays anchors out the way the YOLO head does: attribute-major.
func buildTensor(t *testing.T, classes int, anchors []anchor) []float32 {
	t.Helper()

	n := len(anchors)
	data := make([]float32, (4+classes)*n)
	for i, a := range anchors {
		if len(a.scores) != classes {
			t.Fatalf("anchor %d has %d scores, expected %d", i, len(a.scores), classes)
		}
		data[i] = a.cx
		data[n+i] = a.cy
		data[2*n+i] = a.w
		data[3*n+i] = a.h
		for c, s := range a.scores {
			data[(4+c)*n+i] = s
		}
	}
	return data
}

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestDecodeYOLOScalesAndFilters(t *testing.T) {
	data := buildTensor(t, 2, []anchor{
		{cx: 50, cy: 50, w: 20, h: 40, scores: []float32{0.1, 0.9}},
		{cx: 10, cy: 10, w: 4, h: 4, scores: []float32{0.2, 0.2}},
		{cx: 100, cy: 100, w: 10, h: 10, scores: []float32{0.8, 0.05}},
	})

	got, err := DecodeYOLO(data, 6, 3, Options{
		MinConfidence: 0.25,
		IoU:           0.7,
		ScaleX:        2,
		ScaleY:        0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 detections, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.Class != 1 || !almostEqual(first.Probability, 0.9) {
		t.Fatalf("unexpected first detection: %+v", first)
	}
	want := Box{Left: 80, Top: 15, Right: 120, Bottom: 35}
	if !almostEqual(first.Box.Left, want.Left) || !almostEqual(first.Box.Top, want.Top) ||
		!almostEqual(first.Box.Right, want.Right) || !almostEqual(first.Box.Bottom, want.Bottom) {
		t.Fatalf("unexpected box %+v, expected %+v", first.Box, want)
	}

	if got[1].Class != 0 {
		t.Fatalf("expected class 0 second, got %+v", got[1])
	}
}

func TestDecodeYOLOClassFilter(t *testing.T) {
	data := buildTensor(t, 2, []anchor{
		{cx: 50, cy: 50, w: 20, h: 20, scores: []float32{0.3, 0.9}},
		{cx: 80, cy: 80, w: 20, h: 20, scores: []float32{0.6, 0.1}},
	})

	got, err := DecodeYOLO(data, 6, 2, Options{
		MinConfidence: 0.25,
		Classes:       map[int]bool{0: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both anchors scored on class 0, got %+v", got)
	}
	for _, d := range got {
		if d.Class != 0 {
			t.Fatalf("class filter leaked class %d", d.Class)
		}
	}
	if !almostEqual(got[0].Probability, 0.6) || !almostEqual(got[1].Probability, 0.3) {
		t.Fatalf("unexpected probabilities: %+v", got)
	}
}

func TestDecodeYOLOClampsToImage(t *testing.T) {
	data := buildTensor(t, 1, []anchor{
		{cx: 5, cy: 95, w: 20, h: 20, scores: []float32{0.9}},
		{cx: -50, cy: -50, w: 10, h: 10, scores: []float32{0.9}},
	})

	got, err := DecodeYOLO(data, 5, 2, Options{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the off-image box to be dropped, got %+v", got)
	}
	want := Box{Left: 0, Top: 85, Right: 15, Bottom: 100}
	if got[0].Box != want {
		t.Fatalf("got %+v, expected %+v", got[0].Box, want)
	}
}

func TestDecodeYOLORejectsShortTensor(t *testing.T) {
	if _, err := DecodeYOLO(make([]float32, 10), 6, 3, Options{}); err == nil {
		t.Fatal("expected error for undersized tensor")
	}
	if _, err := DecodeYOLO(make([]float32, 12), 4, 3, Options{}); err == nil {
		t.Fatal("expected error for tensor without class rows")
	}
}

func TestNMS(t *testing.T) {
	results := []DetectResult{
		{Class: 0, Box: Box{0, 0, 10, 10}, Probability: 0.6},
		{Class: 0, Box: Box{1, 1, 11, 11}, Probability: 0.9},
		{Class: 1, Box: Box{1, 1, 11, 11}, Probability: 0.5},
		{Class: 0, Box: Box{50, 50, 60, 60}, Probability: 0.4},
	}

	got := NMS(results, 0.5)
	if len(got) != 3 {
		t.Fatalf("expected 3 boxes after suppression, got %d: %+v", len(got), got)
	}
	if !almostEqual(got[0].Probability, 0.9) || got[1].Class != 1 || !almostEqual(got[2].Probability, 0.4) {
		t.Fatalf("unexpected NMS order: %+v", got)
	}
}

func TestIoU(t *testing.T) {
	tests := []struct {
		a, b Box
		want float32
	}{
		{Box{0, 0, 10, 10}, Box{0, 0, 10, 10}, 1},
		{Box{0, 0, 10, 10}, Box{5, 0, 15, 10}, 50.0 / 150.0},
		{Box{0, 0, 10, 10}, Box{20, 20, 30, 30}, 0},
		{Box{0, 0, 0, 10}, Box{0, 0, 0, 10}, 0},
	}

	for _, tt := range tests {
		if got := tt.a.IoU(tt.b); !almostEqual(got, tt.want) {
			t.Errorf("IoU(%+v, %+v) = %f, expected %f", tt.a, tt.b, got, tt.want)
		}
	}
}
