// Package respond shapes handler output into the API's JSON envelope.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/apperr"
)

// Envelope is the uniform response body: a success boolean, the payload on
// success, a message on failure.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error maps the error's kind onto an HTTP status. Internal faults get a
// generic message; everything else carries its own.
func Error(c echo.Context, err error) error {
	return c.JSON(apperr.HTTPStatus(err), Envelope{Success: false, Message: apperr.Message(err)})
}
