package response

import "github.com/gin-gonic/gin"

// Body is the uniform envelope every endpoint responds with.
type Body struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Send(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Body{Status: status, Message: message, Data: data})
}

func Abort(c *gin.Context, status int, message string, data any) {
	c.AbortWithStatusJSON(status, Body{Status: status, Message: message, Data: data})
}
