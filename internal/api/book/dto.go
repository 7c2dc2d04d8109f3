package book

import "BibliotecaAI/internal/entity"

type PredictRequest struct {
	Images []string `json:"images" validate:"required,min=1,dive,required"`
}

type PredictResponse struct {
	Books []entity.BookOut `json:"books"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Config struct {
	ConfidenceThreshold float64 `validate:"gte=0,lte=1"`
	CropPadding         int     `validate:"gte=0"`
	MaxImageDimension   int     `validate:"gte=64"`
}

func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		CropPadding:         10,
		MaxImageDimension:   1024,
	}
}
