package config

import (
	"BibliotecaAI/internal/api/book"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// NewPredictConfig reads the prediction knobs from the environment, falling
// back to book.DefaultConfig for anything unset.
func NewPredictConfig(validate *validator.Validate) (book.Config, error) {
	cfg := book.DefaultConfig()

	if raw, ok := os.LookupEnv("PREDICT_CONFIDENCE_THRESHOLD"); ok && raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return book.Config{}, fmt.Errorf("invalid PREDICT_CONFIDENCE_THRESHOLD %q: %w", raw, err)
		}
		cfg.ConfidenceThreshold = value
	}

	if raw, ok := os.LookupEnv("PREDICT_CROP_PADDING"); ok && raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return book.Config{}, fmt.Errorf("invalid PREDICT_CROP_PADDING %q: %w", raw, err)
		}
		cfg.CropPadding = value
	}

	if raw, ok := os.LookupEnv("RECOGNITION_MAX_DIMENSION"); ok && raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return book.Config{}, fmt.Errorf("invalid RECOGNITION_MAX_DIMENSION %q: %w", raw, err)
		}
		cfg.MaxImageDimension = value
	}

	if validate != nil {
		if err := validate.Struct(cfg); err != nil {
			return book.Config{}, fmt.Errorf("invalid prediction config: %w", err)
		}
	}

	return cfg, nil
}
