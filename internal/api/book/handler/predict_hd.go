package bookHandler

import (
	"BibliotecaAI/internal/api/book"
	"BibliotecaAI/internal/entity"
	contextPkg "BibliotecaAI/pkg/context"
	"BibliotecaAI/pkg/handlerUtil"
	"BibliotecaAI/pkg/log"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const filesField = "files"

func (h *BookHandler) Predict(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c := contextPkg.FromFiberCtx(ctx)

	errHandler := handlerUtil.New(h.log)

	var uploads []entity.UploadedImage
	var err error

	if strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Debug("Processing JSON request")

		var req book.PredictRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, book.ErrBadRequest, ctx.Path(), "parse_request_body")
		}
		if len(req.Images) == 0 {
			return errHandler.Handle(ctx, requestID, book.ErrNoFilesUploaded, ctx.Path(), "read_uploads")
		}
		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}

		uploads, err = h.uploadsFromBase64(req.Images)
	} else {
		uploads, err = h.uploadsFromMultipart(ctx)
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_uploads")
	}

	books, err := h.bookService.Predict(c, uploads)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "predict")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"files":      len(uploads),
		"books":      len(books),
	}).Info("Book prediction successful")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, book.PredictResponse{
		Books: books,
	})
}

func (h *BookHandler) uploadsFromMultipart(ctx *fiber.Ctx) ([]entity.UploadedImage, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, book.ErrNoFilesUploaded
	}

	files := form.File[filesField]
	if len(files) == 0 {
		return nil, book.ErrNoFilesUploaded
	}

	uploads := make([]entity.UploadedImage, 0, len(files))
	for _, file := range files {
		if err := h.utils.ValidateImageFile(file); err != nil {
			return nil, book.NewInvalidImageError(file.Filename, err)
		}

		data, err := h.utils.ReadFile(file)
		if err != nil {
			return nil, book.NewInvalidImageError(file.Filename, err)
		}

		uploads = append(uploads, entity.UploadedImage{
			Filename: file.Filename,
			Data:     data,
		})
	}

	return uploads, nil
}

func (h *BookHandler) uploadsFromBase64(images []string) ([]entity.UploadedImage, error) {
	uploads := make([]entity.UploadedImage, 0, len(images))
	for i, encoded := range images {
		name := fmt.Sprintf("images[%d]", i)

		data, err := h.utils.DecodeBase64Image(encoded)
		if err != nil {
			return nil, book.NewInvalidImageError(name, err)
		}

		uploads = append(uploads, entity.UploadedImage{
			Filename: name,
			Data:     data,
		})
	}

	return uploads, nil
}
