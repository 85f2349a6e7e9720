package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"corpwise-go/internal/config"
)

// Client 封装了与后端协作方的全部 HTTP 交互。
// 聊天与账户接口分别位于两个基地址；所有请求共用一个带超时的 http.Client。
type Client struct {
	httpClient  *http.Client
	chatBase    string
	accountBase string
}

// NewClient 根据配置创建一个 API 客户端。
func NewClient(cfg config.BackendConfig) (*Client, error) {
	chatBase, err := normalizeBaseURL(cfg.ChatBaseURL)
	if err != nil {
		return nil, fmt.Errorf("聊天服务地址无效: %w", err)
	}
	accountBase, err := normalizeBaseURL(cfg.AccountBaseURL)
	if err != nil {
		return nil, fmt.Errorf("账户服务地址无效: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		chatBase:    chatBase,
		accountBase: accountBase,
	}, nil
}

// normalizeBaseURL 归一化基地址：补全 scheme、去掉路径和末尾斜杠。
func normalizeBaseURL(base string) (string, error) {
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("无法解析地址 %q", base)
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// ChatBase 返回聊天服务基地址，供 websocket 拨号方使用。
func (c *Client) ChatBase() string { return c.chatBase }

// doJSON 发送一个 JSON 请求并解码 2xx 响应到 out（out 为 nil 时丢弃响应体）。
// 非 2xx 响应转换为 *RequestError，传输层错误转换为 *NetworkError。
func (c *Client) doJSON(ctx context.Context, op, method, rawURL string, headers map[string]string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{Op: op, Status: resp.StatusCode, ServerMessage: readDetail(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

// decodeJSON 解码一个已确认 2xx 的响应体。
func decodeJSON(r io.Reader, out interface{}) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

// readDetail 从错误响应体中提取服务端提示信息。
// 后端使用 {"detail": "..."} 的惯例；无法解析时退回原始文本。
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(data))
}

// requireCompanyID 是所有公司作用域操作的前置校验。
func requireCompanyID(companyID string) error {
	if strings.TrimSpace(companyID) == "" {
		return &ValidationError{Field: "companyId", Reason: "不能为空"}
	}
	return nil
}
