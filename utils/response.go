package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capitalpay/capitalpay-api/config"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Stack      string      `json:"stack,omitempty"`
}

// Success returns 200 with data.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, JSONResponse{Success: true, Data: data})
}

// SuccessMessage returns 200 with a message and optional data.
func SuccessMessage(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, JSONResponse{Success: true, Message: message, Data: data})
}

// Created returns 201 with a message and the created entity.
func Created(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusCreated, JSONResponse{Success: true, Message: message, Data: data})
}

// List returns 200 with items, their count, and pagination info.
func List(ctx *gin.Context, data interface{}, count int, p Pagination) {
	ctx.JSON(http.StatusOK, JSONResponse{Success: true, Count: &count, Pagination: &p, Data: data})
}

// Error returns a structured error response. Stack traces are attached by the
// recovery middleware in development only.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, JSONResponse{Success: false, Message: message})
}

// InternalError logs err and answers a generic 500 so internals never leak.
func InternalError(ctx *gin.Context, message string, err error) {
	if Sugar != nil && err != nil {
		Sugar.Errorw(message, "error", err, "path", ctx.FullPath())
	}
	msg := "Internal Server Error"
	if config.IsDevelopment() && err != nil {
		msg = err.Error()
	}
	ctx.JSON(http.StatusInternalServerError, JSONResponse{Success: false, Message: msg})
}
