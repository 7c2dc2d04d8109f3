package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrFileTooLarge  = errors.New("file size exceeds limit")
	ErrInvalidBase64 = errors.New("invalid base64 image data")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
	DecodeBase64Image(encoded string) ([]byte, error)
	DecodeImage(data []byte) (*image.RGBA, error)
	EncodeImageToBase64(img image.Image, maxDimension int) (string, error)
}

type utils struct {
	maxFileSize int64
	jpegQuality int
}

func New() IUtils {
	return &utils{
		maxFileSize: 20 * 1024 * 1024,
		jpegQuality: 90,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return errors.New("no file uploaded")
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}

// DecodeBase64Image accepts plain base64 or a data URL.
func (u *utils) DecodeBase64Image(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.Index(encoded, ",")
		if idx == -1 {
			return nil, ErrInvalidBase64
		}
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidBase64
	}

	return data, nil
}

// DecodeImage decodes any registered format into an RGBA buffer anchored at (0,0).
func (u *utils) DecodeImage(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return rgba, nil
}

func (u *utils) EncodeImageToBase64(img image.Image, maxDimension int) (string, error) {
	img = resizeToFit(img, maxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: u.jpegQuality}); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func resizeToFit(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	if maxDimension <= 0 || (origWidth <= maxDimension && origHeight <= maxDimension) {
		return img
	}

	newWidth, newHeight := maxDimension, maxDimension
	if origWidth > origHeight {
		newHeight = origHeight * maxDimension / origWidth
	} else {
		newWidth = origWidth * maxDimension / origHeight
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	return dst
}
