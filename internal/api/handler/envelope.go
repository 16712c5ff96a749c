package handler

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the response shape of the account endpoints and of every error.
type Envelope struct {
	StatusCode    int      `json:"statusCode"`
	IsSuccess     bool     `json:"isSuccess"`
	ErrorMessages []string `json:"errorMessages"`
	Result        any      `json:"result"`
}

// ErrorEnvelope builds a failed envelope carrying msgs.
func ErrorEnvelope(code int, msgs ...string) Envelope {
	if msgs == nil {
		msgs = []string{}
	}
	return Envelope{StatusCode: code, ErrorMessages: msgs}
}

func respond(c echo.Context, code int, result any) error {
	return c.JSON(code, Envelope{
		StatusCode:    code,
		IsSuccess:     true,
		ErrorMessages: []string{},
		Result:        result,
	})
}
