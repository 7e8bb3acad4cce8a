package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 and points Location at the new resource when one is given.
func Created(c *gin.Context, location string, payload interface{}) {
	if location != "" {
		c.Header("Location", location)
	}
	JSON(c, http.StatusCreated, payload)
}

// Accepted writes a 202 for work that finishes asynchronously, such as a
// queued feasibility report.
func Accepted(c *gin.Context, location string, payload interface{}) {
	if location != "" {
		c.Header("Location", location)
	}
	JSON(c, http.StatusAccepted, payload)
}
