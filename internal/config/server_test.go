package config

import (
	"BibliotecaAI/internal/api/book"
	"BibliotecaAI/internal/entity"
	"context"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type nopDetector struct{ closed bool }

func (d *nopDetector) Predict(_ context.Context, images []image.Image) ([]entity.DetectionResult, error) {
	return make([]entity.DetectionResult, len(images)), nil
}

func (d *nopDetector) Close() error {
	d.closed = true
	return nil
}

type nopVision struct{ closed bool }

func (v *nopVision) AnalyzeImage(context.Context, string, string) (string, error) {
	return "{}", nil
}

func (v *nopVision) Close() error {
	v.closed = true
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, detector *nopDetector, vision *nopVision) *Server {
	t.Helper()

	logger := quietLogger()
	srv, err := NewServer(
		WithFiber(fiber.New()),
		WithLogger(logger),
		WithValidator(NewValidator()),
		WithUtils(),
		WithMiddleware(),
		func(s *Server) error {
			s.detector = detector
			s.visionModel = vision
			return nil
		},
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	srv.RegisterHandler()
	return srv
}

func TestNewServerRequiresFiberAndLogger(t *testing.T) {
	if _, err := NewServer(WithLogger(quietLogger())); err == nil {
		t.Fatal("expected error without fiber app")
	}
	if _, err := NewServer(WithFiber(fiber.New())); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewServer(WithFiber(fiber.New()), WithMiddleware()); err == nil {
		t.Fatal("expected error when middleware precedes logger")
	}
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, &nopDetector{}, &nopVision{})

	tests := []struct {
		path string
		want map[string]string
	}{
		{"/", map[string]string{"message": "Biblioteca AI Inference API is running!"}},
		{"/health_check", map[string]string{"status": "healthy", "message": healthMessage}},
	}

	for _, tt := range tests {
		resp, err := srv.engine.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", tt.path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("GET %s: missing request id header", tt.path)
		}

		var got map[string]string
		if err := jsoniter.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("GET %s: decode: %v", tt.path, err)
		}
		resp.Body.Close()

		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("GET %s: %s = %q, expected %q", tt.path, k, got[k], v)
			}
		}
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	srv := newTestServer(t, &nopDetector{}, &nopVision{})

	req := httptest.NewRequest(http.MethodGet, "/health_check", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://shelf.example")

	resp, err := srv.engine.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get(fiber.HeaderAccessControlAllowOrigin); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestShutdownClosesClients(t *testing.T) {
	detector, vision := &nopDetector{}, &nopVision{}
	srv := newTestServer(t, detector, vision)

	// The engine was never started, so only the client teardown matters here.
	_ = srv.Shutdown()

	if !detector.closed || !vision.closed {
		t.Fatalf("expected clients closed, detector=%v vision=%v", detector.closed, vision.closed)
	}
}

func TestUnknownBackends(t *testing.T) {
	t.Setenv("DETECTOR_BACKEND", "tensorflow")
	if _, err := NewServer(WithFiber(fiber.New()), WithLogger(quietLogger()), WithDetector()); err == nil {
		t.Fatal("expected error for unknown detector backend")
	}

	t.Setenv("RECOGNIZER_PROVIDER", "claude")
	if _, err := NewServer(WithFiber(fiber.New()), WithLogger(quietLogger()), WithVisionModel()); err == nil {
		t.Fatal("expected error for unknown recognizer provider")
	}
}

func TestNewPredictConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    book.Config
		wantErr bool
	}{
		{"defaults", nil, book.DefaultConfig(), false},
		{
			"overrides",
			map[string]string{"PREDICT_CONFIDENCE_THRESHOLD": "0.7", "PREDICT_CROP_PADDING": "4", "RECOGNITION_MAX_DIMENSION": "512"},
			book.Config{ConfidenceThreshold: 0.7, CropPadding: 4, MaxImageDimension: 512},
			false,
		},
		{"threshold above one", map[string]string{"PREDICT_CONFIDENCE_THRESHOLD": "1.5"}, book.Config{}, true},
		{"negative padding", map[string]string{"PREDICT_CROP_PADDING": "-1"}, book.Config{}, true},
		{"not a number", map[string]string{"PREDICT_CROP_PADDING": "ten"}, book.Config{}, true},
		{"tiny dimension", map[string]string{"RECOGNITION_MAX_DIMENSION": "8"}, book.Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"PREDICT_CONFIDENCE_THRESHOLD", "PREDICT_CROP_PADDING", "RECOGNITION_MAX_DIMENSION"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := NewPredictConfig(NewValidator())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, expected %+v", got, tt.want)
			}
		})
	}
}
