// Package api 实现了对外部后端协作方的类型化 HTTP 客户端。
package api

import (
	"errors"
	"fmt"
)

// NetworkError 表示请求未能完成（连接失败、超时等），与后端返回的业务错误区分。
// 状态未发生变化，调用方可以安全地手动重试。
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: 网络请求未能完成: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError 表示后端拒绝了认证请求（凭证错误），携带服务端给出的提示信息。
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("认证失败 (HTTP %d)", e.Status)
}

// RequestError 表示资源操作收到非 2xx 响应。
type RequestError struct {
	Op            string
	Status        int
	ServerMessage string
}

func (e *RequestError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("%s 失败 (HTTP %d): %s", e.Op, e.Status, e.ServerMessage)
	}
	return fmt.Sprintf("%s 失败 (HTTP %d)", e.Op, e.Status)
}

// ValidationError 表示客户端前置校验未通过，请求未发出。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: %s %s", e.Field, e.Reason)
}

// IsNetwork 判断 err 是否为网络层错误。
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
