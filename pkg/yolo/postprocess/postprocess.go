// Package postprocess turns raw YOLO output tensors into scored boxes.
package postprocess

import (
	"fmt"
	"sort"
)

// Box is a bounding box in Left, Top, Right, Bottom form.
type Box struct {
	Left   float32
	Top    float32
	Right  float32
	Bottom float32
}

func (b Box) Area() float32 {
	w := b.Right - b.Left
	h := b.Bottom - b.Top
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU is the intersection over union of two boxes.
func (b Box) IoU(o Box) float32 {
	left := max(b.Left, o.Left)
	top := max(b.Top, o.Top)
	right := min(b.Right, o.Right)
	bottom := min(b.Bottom, o.Bottom)

	inter := Box{Left: left, Top: top, Right: right, Bottom: bottom}.Area()
	if inter == 0 {
		return 0
	}

	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// DetectResult defines the attributes of a single object detected.
type DetectResult struct {
	Class       int
	Box         Box
	Probability float32
}

type Options struct {
	// MinConfidence drops candidates scoring at or below it.
	MinConfidence float32
	// IoU is the NMS overlap threshold.
	IoU float32
	// Classes restricts output to these class ids. Empty keeps all.
	Classes map[int]bool
	// ScaleX and ScaleY map network input coordinates back to the source image.
	ScaleX float32
	ScaleY float32
	// Width and Height clamp the scaled boxes. Zero disables clamping.
	Width  float32
	Height float32
}

// DecodeYOLO reads a YOLOv8/v9 detection head laid out as [4+classes, anchors]
// in row-major order: cx, cy, w, h rows followed by one score row per class.
func DecodeYOLO(data []float32, attributes, anchors int, opts Options) ([]DetectResult, error) {
	if attributes <= 4 {
		return nil, fmt.Errorf("yolo output needs more than 4 attributes, got %d", attributes)
	}
	if len(data) < attributes*anchors {
		return nil, fmt.Errorf("yolo output has %d values, expected %d", len(data), attributes*anchors)
	}

	scaleX, scaleY := opts.ScaleX, opts.ScaleY
	if scaleX == 0 {
		scaleX = 1
	}
	if scaleY == 0 {
		scaleY = 1
	}

	numClasses := attributes - 4
	candidates := make([]DetectResult, 0)

	for i := 0; i < anchors; i++ {
		bestClass := -1
		var bestScore float32
		for c := 0; c < numClasses; c++ {
			if len(opts.Classes) > 0 && !opts.Classes[c] {
				continue
			}
			score := data[(4+c)*anchors+i]
			if bestClass == -1 || score > bestScore {
				bestClass, bestScore = c, score
			}
		}
		if bestClass == -1 || bestScore <= opts.MinConfidence {
			continue
		}

		cx := data[i]
		cy := data[anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		box := Box{
			Left:   (cx - w/2) * scaleX,
			Top:    (cy - h/2) * scaleY,
			Right:  (cx + w/2) * scaleX,
			Bottom: (cy + h/2) * scaleY,
		}
		box = clamp(box, opts.Width, opts.Height)
		if box.Area() == 0 {
			continue
		}

		candidates = append(candidates, DetectResult{
			Class:       bestClass,
			Box:         box,
			Probability: bestScore,
		})
	}

	return NMS(candidates, opts.IoU), nil
}

// NMS performs greedy per-class non-maximum suppression. Results are ordered
// by descending probability.
func NMS(results []DetectResult, iou float32) []DetectResult {
	sorted := make([]DetectResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability > sorted[j].Probability
	})

	if iou <= 0 {
		return sorted
	}

	kept := make([]DetectResult, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].Class != sorted[i].Class {
				continue
			}
			if sorted[i].Box.IoU(sorted[j].Box) > iou {
				suppressed[j] = true
			}
		}
	}

	return kept
}

func clamp(b Box, width, height float32) Box {
	if width > 0 {
		b.Left = min(max(b.Left, 0), width)
		b.Right = min(max(b.Right, 0), width)
	}
	if height > 0 {
		b.Top = min(max(b.Top, 0), height)
		b.Bottom = min(max(b.Bottom, 0), height)
	}
	return b
}
