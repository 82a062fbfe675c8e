package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client is the contract over the remote inference service: it answers
// a chat turn and ingests uploaded documents into a user's knowledge
// context.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error)
}

// ChatRequest mirrors the wire shape of POST {base}/chat.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	ModelName string `json:"model_name"`
	UseWeb    bool   `json:"use_web"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// UploadRequest carries one document for ingestion. SessionId may be
// empty: documents can be uploaded before any session exists.
type UploadRequest struct {
	UserId    string
	SessionId string
	Filename  string
	Content   io.Reader
}

type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RemoteError is a non-2xx answer from the inference service carrying
// its human-readable detail.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("inference service returned status %d", e.StatusCode)
}

// HTTPClient talks to the inference backend over plain HTTP.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

var _ Client = &HTTPClient{}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *HTTPClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &chatResp, nil
}

func (c *HTTPClient) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.WriteField("user_id", req.UserId); err != nil {
		return nil, fmt.Errorf("write user_id field: %w", err)
	}
	if req.SessionId != "" {
		if err := writer.WriteField("session_id", req.SessionId); err != nil {
			return nil, fmt.Errorf("write session_id field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp.StatusCode, body)
	}

	var uploadResp UploadResponse
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &uploadResp, nil
}

// remoteError extracts the FastAPI-style {"detail": "..."} body when
// present.
func remoteError(status int, body []byte) error {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != "" {
		return &RemoteError{StatusCode: status, Detail: envelope.Detail}
	}
	return &RemoteError{StatusCode: status}
}
