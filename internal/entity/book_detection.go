package entity

type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type Detection struct {
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
	ClassID    int         `json:"class_id"`
}

type DetectionResult struct {
	Detections []Detection `json:"detections"`
}

// Above returns the boxes whose confidence is strictly greater than threshold,
// keeping detector order.
func (r DetectionResult) Above(threshold float64) []BoundingBox {
	boxes := make([]BoundingBox, 0, len(r.Detections))
	for _, d := range r.Detections {
		if d.Confidence > threshold {
			boxes = append(boxes, d.Box)
		}
	}
	return boxes
}
