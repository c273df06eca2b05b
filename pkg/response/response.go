package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

// Payload carries the entity keys (event, events, user, ...) merged into the envelope.
type Payload map[string]interface{}

// Envelope represents the common response contract.
type Envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Errors  []string               `json:"errors,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

func (e Envelope) body(payload Payload) gin.H {
	body := gin.H{"success": e.Success}
	for key, value := range payload {
		body[key] = value
	}
	if e.Message != "" {
		body["message"] = e.Message
	}
	if e.Code != "" {
		body["code"] = e.Code
	}
	if len(e.Errors) > 0 {
		body["errors"] = e.Errors
	}
	if len(e.Meta) > 0 {
		body["meta"] = e.Meta
	}
	return body
}

// JSON sends a success response with optional metadata.
// A Cache-Control header already set by the handler is kept; otherwise the response is no-store.
func JSON(c *gin.Context, status int, message string, payload Payload, meta ...map[string]interface{}) {
	if c.Writer.Header().Get("Cache-Control") == "" {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
	}
	envelope := Envelope{Success: true, Message: message}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope.body(payload))
}

// OK responds with HTTP 200.
func OK(c *gin.Context, message string, payload Payload, meta ...map[string]interface{}) {
	JSON(c, http.StatusOK, message, payload, meta...)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, payload Payload, meta ...map[string]interface{}) {
	JSON(c, http.StatusCreated, message, payload, meta...)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
		Errors:  appErr.Details,
	}
	c.JSON(appErr.Status, envelope.body(nil))
}

// Abort writes the error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// NotModified sends a 304 response.
func NotModified(c *gin.Context) {
	c.Status(http.StatusNotModified)
}

// File streams a downloadable attachment.
func File(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, data)
}
