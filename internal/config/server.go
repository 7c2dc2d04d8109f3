package config

import (
	"BibliotecaAI/internal/api/book"
	bookHandler "BibliotecaAI/internal/api/book/handler"
	bookService "BibliotecaAI/internal/api/book/service"
	"BibliotecaAI/internal/middleware"
	"BibliotecaAI/pkg/gemini"
	"BibliotecaAI/pkg/openai"
	"BibliotecaAI/pkg/utils"
	websocketPkg "BibliotecaAI/pkg/websocket"
	"BibliotecaAI/pkg/yolo"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

const healthMessage = "Fear is the mind killer. Fear is the little death that brings total obliteration."

type ServerOption func(*Server) error

type Server struct {
	engine        *fiber.App
	log           *logrus.Logger
	middleware    middleware.Middleware
	validator     *validator.Validate
	utils         utils.IUtils
	detector      Detector
	visionModel   VisionModel
	predictConfig book.Config
	handlers      []handler
}

type handler interface {
	Start(srv fiber.Router)
}

type Detector interface {
	bookService.Detector
	Close() error
}

type VisionModel interface {
	bookService.VisionModel
	Close() error
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		predictConfig: book.DefaultConfig(),
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.utils == nil {
			return fmt.Errorf("utils must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.utils)
		return nil
	}
}

// WithDetector picks the detection backend from DETECTOR_BACKEND: "onnx"
// (default) runs the model in-process, "remote" talks to a websocket service.
func WithDetector() ServerOption {
	return func(s *Server) error {
		backend := strings.ToLower(os.Getenv("DETECTOR_BACKEND"))

		var (
			detector Detector
			err      error
		)
		switch backend {
		case "", "onnx":
			detector, err = yolo.New(s.log)
		case "remote":
			detector, err = websocketPkg.NewDetectorClient(s.log)
		default:
			return fmt.Errorf("unknown DETECTOR_BACKEND %q", backend)
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize %s detector: %v", backend, err)
			}
			return fmt.Errorf("failed to create detector: %w", err)
		}

		s.detector = detector
		return nil
	}
}

func WithVisionModel() ServerOption {
	return func(s *Server) error {
		provider := strings.ToLower(os.Getenv("RECOGNIZER_PROVIDER"))

		var (
			model VisionModel
			err   error
		)
		switch provider {
		case "", "openai":
			model, err = openai.NewVision()
		case "gemini":
			model, err = gemini.NewGeminiClient()
		default:
			return fmt.Errorf("unknown RECOGNIZER_PROVIDER %q", provider)
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create %s vision client: %v", provider, err)
			}
			return fmt.Errorf("failed to create vision client: %w", err)
		}

		s.visionModel = model
		return nil
	}
}

func WithPredictConfig() ServerOption {
	return func(s *Server) error {
		cfg, err := NewPredictConfig(s.validator)
		if err != nil {
			return err
		}
		s.predictConfig = cfg
		return nil
	}
}

func (s *Server) RegisterHandler() {
	s.setupMiddleware()

	// Book recognition
	bookServices := bookService.NewBookService(s.log, s.detector, s.visionModel, s.utils, s.predictConfig)
	bookHandlers := bookHandler.New(s.log, s.validator, s.middleware, bookServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, bookHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api")
	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown() error {
	err := s.engine.Shutdown()

	if s.detector != nil {
		if closeErr := s.detector.Close(); closeErr != nil {
			s.log.Errorf("Failed to close detector: %v", closeErr)
		}
	}
	if s.visionModel != nil {
		if closeErr := s.visionModel.Close(); closeErr != nil {
			s.log.Errorf("Failed to close vision client: %v", closeErr)
		}
	}

	return err
}

func (s *Server) setupMiddleware() {
	s.engine.Use(cors.New())
	if s.middleware != nil {
		s.engine.Use(s.middleware.NewRequestIDMiddleware())
		s.engine.Use(s.middleware.NewLoggingMiddleware())
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(book.MessageResponse{
			Message: "Biblioteca AI Inference API is running!",
		})
	})

	s.engine.Get("/health_check", func(ctx *fiber.Ctx) error {
		return ctx.JSON(book.HealthResponse{
			Status:  "healthy",
			Message: healthMessage,
		})
	})
}
