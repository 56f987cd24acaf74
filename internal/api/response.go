package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func dataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Status: status, Message: http.StatusText(status), Data: data})
}

func errorResponse(c echo.Context, status int, msg string) error {
	return c.JSON(status, Response{Status: status, Message: http.StatusText(status), Error: msg})
}

var validate = validator.New()

// bindAndValidate reads the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return validate.Struct(req)
}
