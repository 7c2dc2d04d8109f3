package bookService

import (
	"BibliotecaAI/internal/api/book"
	"BibliotecaAI/internal/entity"
	"BibliotecaAI/pkg/utils"
	"context"
	"image"

	"github.com/sirupsen/logrus"
)

type IBookService interface {
	Predict(ctx context.Context, uploads []entity.UploadedImage) ([]entity.BookOut, error)
}

// Detector is satisfied by the local YOLO runtime and the remote websocket client.
type Detector interface {
	Predict(ctx context.Context, images []image.Image) ([]entity.DetectionResult, error)
}

// VisionModel is satisfied by the OpenAI and Gemini clients.
type VisionModel interface {
	AnalyzeImage(ctx context.Context, base64Image string, prompt string) (string, error)
}

type bookService struct {
	log      *logrus.Logger
	detector Detector
	vision   VisionModel
	utils    utils.IUtils
	config   book.Config
}

func NewBookService(
	log *logrus.Logger,
	detector Detector,
	vision VisionModel,
	utils utils.IUtils,
	config book.Config,
) IBookService {
	return &bookService{
		log:      log,
		detector: detector,
		vision:   vision,
		utils:    utils,
		config:   config,
	}
}
