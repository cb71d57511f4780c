// Package response 统一 HTTP 响应结构
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeComputationError = "COMPUTATION_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
)

// RequestIDKey gin.Context 中请求 ID 的键
const RequestIDKey = "request_id"

// SuccessBody 成功响应
type SuccessBody struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
}

// ErrorBody 错误响应
type ErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// StatusFor 错误码对应的 HTTP 状态码
func StatusFor(code string) int {
	switch code {
	case CodeValidationError, CodeBadRequest:
		return http.StatusBadRequest
	case CodeComputationError:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Success 返回 200 及数据
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessBody{Data: data, RequestID: RequestID(c)})
}

// Error 按错误码返回错误
func Error(c *gin.Context, code, message string) {
	c.JSON(StatusFor(code), ErrorBody{ErrorCode: code, Message: message, RequestID: RequestID(c)})
}

// Abort 返回错误并终止后续处理
func Abort(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(StatusFor(code), ErrorBody{ErrorCode: code, Message: message, RequestID: RequestID(c)})
}

// RequestID 读取当前请求 ID
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
