package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExportResponse is the payload of the export endpoints.
type ExportResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FilePath string `json:"file_path,omitempty"`
}

// TestConnectionResponse is the payload of /api/connection/test.
type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// fail reports a domain failure. These stay 200 so clients read the
// envelope; only malformed requests get a 4xx.
func fail(c *gin.Context, msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
