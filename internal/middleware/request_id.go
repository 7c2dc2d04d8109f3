package middleware

import (
	contextPkg "BibliotecaAI/pkg/context"
	"BibliotecaAI/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const RequestIDKey = contextPkg.RequestIDHeader

func newRequestIDMiddleware(utilsInstance utils.IUtils) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if requestID == "" {
			id, err := utilsInstance.NewULIDFromTimestamp(time.Now())
			if err != nil || id == "" {
				id = uuid.NewString()
			}
			requestID = id
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}
