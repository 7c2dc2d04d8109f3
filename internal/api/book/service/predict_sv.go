package bookService

import (
	"BibliotecaAI/internal/api/book"
	"BibliotecaAI/internal/entity"
	"BibliotecaAI/pkg/log"
	"context"
	"fmt"
	"image"
)

func (s *bookService) Predict(ctx context.Context, uploads []entity.UploadedImage) ([]entity.BookOut, error) {
	logger := log.WithRequestID(ctx, s.log)

	if len(uploads) == 0 {
		return nil, book.ErrNoFilesUploaded
	}

	images := make([]*image.RGBA, 0, len(uploads))
	batch := make([]image.Image, 0, len(uploads))
	for _, upload := range uploads {
		logger.WithFields(log.Fields{
			"file_name": upload.Filename,
			"file_size": len(upload.Data),
		}).Info("Processing image")

		img, err := s.utils.DecodeImage(upload.Data)
		if err != nil {
			return nil, book.NewInvalidImageError(upload.Filename, err)
		}
		images = append(images, img)
		batch = append(batch, img)
	}

	logger.WithFields(log.Fields{
		"images": len(batch),
	}).Info("Batch object detection for images")

	results, err := s.detector.Predict(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", book.ErrDetectionFailed, err)
	}
	if len(results) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d results, got %d", book.ErrDetectionFailed, len(batch), len(results))
	}

	crops := make([]entity.BookCrop, 0)
	for i, result := range results {
		boxes := result.Above(s.config.ConfidenceThreshold)
		imageCrops := CropBooks(images[i], boxes, s.config.CropPadding, uploads[i].Filename)

		logger.WithFields(log.Fields{
			"file_name":  uploads[i].Filename,
			"detections": len(result.Detections),
			"boxes":      len(boxes),
			"crops":      len(imageCrops),
		}).Debug("Detected books")

		crops = append(crops, imageCrops...)
	}

	outcomes := make([]entity.RecognitionOutcome, 0, len(crops))
	for _, crop := range crops {
		outcome := s.recognize(ctx, crop)
		if !outcome.OK() {
			logger.WithFields(log.Fields{
				"file_name": crop.Source,
				"box_index": crop.BoxIndex,
				"reason":    outcome.Reason,
			}).Warn("Book recognition failed")
		}
		outcomes = append(outcomes, outcome)
	}

	books := Aggregate(outcomes)

	logger.WithFields(log.Fields{
		"crops": len(crops),
		"books": len(books),
	}).Info("Prediction completed")

	return books, nil
}
