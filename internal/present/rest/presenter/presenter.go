package presenter

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Created wraps a successful creation response.
func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg, Code: "unauthorized"})
}

// Error maps a claim outcome to its transport status. Every rejected claim
// surfaces one of the taxonomy codes so callers can render an accurate
// message; only genuine storage faults become 500s.
func Error(c echo.Context, err error) error {
	var locked domain.LockedError
	if errors.As(err, &locked) {
		return c.JSON(http.StatusConflict, errorResponse{
			Error: lockedMessage(locked),
			Code:  "word_locked",
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: "word_not_found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "word_already_exists"})
	case errors.Is(err, domain.ErrPriceMismatch):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "price_mismatch"})
	case errors.Is(err, domain.ErrContentRejected):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "content_rejected"})
	default:
		slog.Error(
			"internal error",
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "storage_failure"})
	}
}

// lockedMessage renders the remaining lockout so buyers know when to retry.
func lockedMessage(err domain.LockedError) string {
	remaining := time.Until(err.Until)
	if remaining <= 0 {
		return err.Error()
	}
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	return fmt.Sprintf("word %q is currently locked. Time remaining: %dh %dm", err.Word, hours, minutes)
}
