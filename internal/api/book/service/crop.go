package bookService

import (
	"BibliotecaAI/internal/entity"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// CropBooks cuts one padded sub-image per box, clamped to the image bounds.
// Boxes that end up with no area are dropped; order follows boxes.
func CropBooks(src *image.RGBA, boxes []entity.BoundingBox, padding int, source string) []entity.BookCrop {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	crops := make([]entity.BookCrop, 0, len(boxes))
	for i, box := range boxes {
		rect := PaddedRect(box, padding, width, height)
		if rect.Empty() {
			continue
		}

		dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(dst, dst.Bounds(), src, bounds.Min.Add(rect.Min), draw.Src)

		crops = append(crops, entity.BookCrop{
			Source:   source,
			BoxIndex: i,
			Image:    dst,
		})
	}

	return crops
}

// PaddedRect truncates the box to whole pixels, grows it by padding on every
// side and clamps it to [0,width]x[0,height]. NaN coordinates yield an empty
// rectangle.
func PaddedRect(box entity.BoundingBox, padding, width, height int) image.Rectangle {
	if math.IsNaN(box.X1) || math.IsNaN(box.Y1) || math.IsNaN(box.X2) || math.IsNaN(box.Y2) {
		return image.Rectangle{}
	}

	// Coordinates are bounded before the int conversion so huge values
	// cannot overflow; anything past the limits pads out of the image anyway.
	x1 := max(0, toPixel(box.X1, padding, width)-padding)
	y1 := max(0, toPixel(box.Y1, padding, height)-padding)
	x2 := min(width, toPixel(box.X2, padding, width)+padding)
	y2 := min(height, toPixel(box.Y2, padding, height)+padding)

	if x2 <= x1 || y2 <= y1 {
		return image.Rectangle{}
	}
	return image.Rect(x1, y1, x2, y2)
}

func toPixel(v float64, padding, limit int) int {
	return int(math.Max(float64(-padding), math.Min(float64(limit+padding), v)))
}
