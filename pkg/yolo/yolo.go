package yolo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"sync"

	"BibliotecaAI/internal/entity"
	"BibliotecaAI/pkg/yolo/postprocess"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	defaultModelPath     = "./models/yolov9c.onnx"
	defaultInputSize     = 640
	defaultMinConfidence = 0.25
	defaultNMSIoU        = 0.7
	// COCO class id for "book".
	defaultClassIDs = "73"
)

type IDetector interface {
	Predict(ctx context.Context, images []image.Image) ([]entity.DetectionResult, error)
	Close() error
}

type yoloDetector struct {
	net       gocv.Net
	mu        sync.Mutex
	inputSize int
	opts      postprocess.Options
	log       *logrus.Logger
}

func New(logger *logrus.Logger) (IDetector, error) {
	modelPath := getEnv("YOLO_MODEL_PATH", defaultModelPath)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	classes, err := parseClassIDs(getEnv("YOLO_CLASS_IDS", defaultClassIDs))
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if os.Getenv("YOLO_USE_CUDA") == "true" {
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	errBackend := net.SetPreferableBackend(backend)
	errTarget := net.SetPreferableTarget(target)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, errors.New("failed to set preferable backend or target")
	}

	d := &yoloDetector{
		net:       net,
		inputSize: getEnvAsInt("YOLO_INPUT_SIZE", defaultInputSize),
		opts: postprocess.Options{
			MinConfidence: float32(getEnvAsFloat("YOLO_MIN_CONFIDENCE", defaultMinConfidence)),
			IoU:           float32(getEnvAsFloat("YOLO_NMS_IOU", defaultNMSIoU)),
			Classes:       classes,
		},
		log: logger,
	}

	logger.WithFields(logrus.Fields{
		"model":      modelPath,
		"input_size": d.inputSize,
		"cuda":       backend == gocv.NetBackendCUDA,
	}).Info("Detection network initialized successfully")

	return d, nil
}

// Predict runs the network once per image. gocv.Net is not safe for
// concurrent Forward calls, so inference is serialised here.
func (d *yoloDetector) Predict(ctx context.Context, images []image.Image) ([]entity.DetectionResult, error) {
	results := make([]entity.DetectionResult, 0, len(images))

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		detections, err := d.detect(img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		results = append(results, entity.DetectionResult{Detections: detections})
	}

	return results, nil
}

func (d *yoloDetector) detect(img image.Image) ([]entity.Detection, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("converted image is empty")
	}

	size := image.Pt(d.inputSize, d.inputSize)
	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	attributes, anchors := dims[1], dims[2]

	reshaped := output.Reshape(1, attributes)
	defer reshaped.Close()

	data := make([]float32, 0, attributes*anchors)
	for r := 0; r < attributes; r++ {
		for c := 0; c < anchors; c++ {
			data = append(data, reshaped.GetFloatAt(r, c))
		}
	}

	opts := d.opts
	opts.ScaleX = float32(mat.Cols()) / float32(d.inputSize)
	opts.ScaleY = float32(mat.Rows()) / float32(d.inputSize)
	opts.Width = float32(mat.Cols())
	opts.Height = float32(mat.Rows())

	decoded, err := postprocess.DecodeYOLO(data, attributes, anchors, opts)
	if err != nil {
		return nil, err
	}

	detections := make([]entity.Detection, 0, len(decoded))
	for _, r := range decoded {
		detections = append(detections, entity.Detection{
			Box: entity.BoundingBox{
				X1: float64(r.Box.Left),
				Y1: float64(r.Box.Top),
				X2: float64(r.Box.Right),
				Y2: float64(r.Box.Bottom),
			},
			Confidence: float64(r.Probability),
			ClassID:    r.Class,
		})
	}

	return detections, nil
}

func (d *yoloDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func parseClassIDs(raw string) (map[int]bool, error) {
	classes := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid class id %q in YOLO_CLASS_IDS", part)
		}
		classes[id] = true
	}
	return classes, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
