// Package resp 定义统一的 HTTP JSON 响应结构与错误码。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码
const (
	CodeOK            = 0
	CodeInvalidParam  = 10001
	CodeUnauthorized  = 10002
	CodeForbidden     = 10003
	CodeNotFound      = 10004
	CodeConflict      = 10005
	CodeTimeout       = 10006
	CodeInternalError = 50000
)

// Response 统一响应包裹
type Response[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteJSON 写出统一格式的 JSON 响应
func WriteJSON(w http.ResponseWriter, status, code int, message string, data any, requestID, traceID string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response[any]{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// OK 200 成功响应
func OK(w http.ResponseWriter, data any, requestID, traceID string) {
	WriteJSON(w, http.StatusOK, CodeOK, "success", data, requestID, traceID)
}

// Created 201 创建成功响应
func Created(w http.ResponseWriter, data any, requestID, traceID string) {
	WriteJSON(w, http.StatusCreated, CodeOK, "created", data, requestID, traceID)
}

// Error 错误响应，data 字段为空
func Error(w http.ResponseWriter, status, code int, message, requestID, traceID string) {
	WriteJSON(w, status, code, message, nil, requestID, traceID)
}

// HTTPStatusFromCode 将业务错误码映射为 HTTP 状态码
func HTTPStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
