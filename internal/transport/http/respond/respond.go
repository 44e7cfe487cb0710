// Package respond writes the JSON envelopes shared by every endpoint:
// {"ok":true,"data":...} and {"ok":false,"error":{"code":...,"message":...}}.
package respond

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{OK: true, Data: data})
}

// Error maps err through the error table and writes it. Causes of 5xx
// responses are logged and never sent to the client.
func Error(c *gin.Context, logger *slog.Logger, err error) {
	m := lookup(err)
	if m.status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "code", m.code, "error", err)
	}
	c.JSON(m.status, Envelope{Error: &ErrorBody{Code: m.code, Message: m.message}})
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, logger *slog.Logger, err error) {
	c.Abort()
	Error(c, logger, err)
}

// Validation answers 422 with a message naming the offending fields.
func Validation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Envelope{Error: &ErrorBody{
		Code:    "VALIDATION_ERROR",
		Message: validationMessage(err),
	}})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Malformed request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", lowerFirst(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
