package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every HTTP API response uses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func badRequest(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, message)
}

func internalError(c *gin.Context, message string) {
	errorResponse(c, http.StatusInternalServerError, message)
}
