// Package envelope renders the response wrappers the admin front-end expects.
// Every payload is wrapped in {success, message, data, timestamp}; paginated
// payloads additionally wrap their rows in {content, page, size, totalElements,
// totalPages, first, last}.
package envelope

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response is the top-level wrapper for every API payload.
type Response struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Page wraps one page of rows together with paging metadata. Page numbers are
// zero-based, matching the front-end's table component.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// NewPage builds paging metadata from a page of rows and the total row count.
// A nil content slice is normalized to an empty one so the JSON field is
// always an array.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          totalPages == 0 || page >= totalPages-1,
	}
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Created writes a 201 success envelope.
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Error writes a failure envelope with the given HTTP status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// AbortError writes a failure envelope and aborts the handler chain.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}
