package common

import (
	"github.com/gin-gonic/gin"
)

// Response is a {data} JSON wrapper. Success and Created do not use it:
// they write the payload bare as the response body.
type Response struct {
	Data any `json:"data,omitempty"`
}

// ErrorBody is the envelope for a failed request, per spec §7.
type ErrorBody struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func Success(c *gin.Context, data any) {
	c.JSON(200, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(201, data)
}

// Error writes the {error_kind, message} body at the status the error's
// Kind maps to, and never logs validation/conflict kinds as errors (§7).
func Error(c *gin.Context, err error) {
	e := AsErrNo(err)
	c.JSON(e.Kind.HTTPStatus(), ErrorBody{
		ErrorKind: string(e.Kind),
		Message:   e.Message,
	})
}
