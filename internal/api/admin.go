package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// ListDocuments 列出公司的全部文档。每次调用都重新拉取，客户端不做缓存。
func (c *Client) ListDocuments(ctx context.Context, companyID string) ([]Document, error) {
	if err := requireCompanyID(companyID); err != nil {
		return nil, err
	}
	headers := map[string]string{"X-Company-ID": companyID}
	var out struct {
		Documents []Document `json:"documents"`
	}
	err := c.doJSON(ctx, "文档列表", http.MethodGet, c.chatBase+"/admin/documents", headers, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// UploadDocument 以 multipart 形式上传一份文档。
// docType 作为查询参数传递，与后端的分类约定一致。
func (c *Client) UploadDocument(ctx context.Context, companyID, filename string, content io.Reader, docType string) (*Document, error) {
	if err := requireCompanyID(companyID); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, &ValidationError{Field: "filename", Reason: "不能为空"}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("构建上传表单失败: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("读取上传内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("关闭上传表单失败: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/admin/documents/upload?doc_type=%s", c.chatBase, url.QueryEscape(docType))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Company-ID", companyID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "文档上传", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Op: "文档上传", Status: resp.StatusCode, ServerMessage: readDetail(resp.Body)}
	}

	var out struct {
		Document Document `json:"document"`
	}
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, err
	}
	return &out.Document, nil
}

// DeleteDocument 删除一份文档。契约假定调用方已确认意图，立即执行。
func (c *Client) DeleteDocument(ctx context.Context, companyID, docID string) error {
	if err := requireCompanyID(companyID); err != nil {
		return err
	}
	if docID == "" {
		return &ValidationError{Field: "docId", Reason: "不能为空"}
	}
	headers := map[string]string{"X-Company-ID": companyID}
	return c.doJSON(ctx, "文档删除", http.MethodDelete,
		fmt.Sprintf("%s/admin/documents/%s", c.chatBase, url.PathEscape(docID)), headers, nil, nil)
}
