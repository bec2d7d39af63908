package handlers

import "github.com/gin-gonic/gin"

// errorResponse writes the error envelope: {message, statusCode}
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"message":    message,
		"statusCode": status,
	})
}
