package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/logging"
	"github.com/casamorales/restaurant-backend/internal/mykafka"
)

type messageResponse struct {
	Message string `json:"message"`
}

// fail translates the error taxonomy into an HTTP response. Internal
// detail is logged, never sent.
func fail(c echo.Context, err error) error {
	code := apperrors.StatusCode(err)
	if code == http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("internal_error", "error", err)
	}
	return c.JSON(code, messageResponse{Message: apperrors.Message(err)})
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid id")
	}
	return uint(id), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFoundError("%s not found", entity)
	}
	return err
}

func publish(c echo.Context, producer *mykafka.Producer, topic, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "topic", topic, "error", err)
	}
}
