package bookHandler

import (
	bookService "BibliotecaAI/internal/api/book/service"
	"BibliotecaAI/internal/middleware"
	"BibliotecaAI/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type BookHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	bookService bookService.IBookService
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	bs bookService.IBookService,
	utils utils.IUtils,
) *BookHandler {
	return &BookHandler{
		log:         log,
		validator:   validator,
		middleware:  middleware,
		bookService: bs,
		utils:       utils,
	}
}

func (h *BookHandler) Start(srv fiber.Router) {
	srv.Post("/predict", h.Predict)
}
