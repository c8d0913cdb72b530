// Package extractor reads financial terms from invoice documents with an
// OpenAI-compatible vision model.
package extractor

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 4096
	mimePDF          = "application/pdf"
)

// Config holds configuration for the vision endpoint
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxTokens     int
	RetryCount    int
	RetryWaitTime time.Duration
}

// Client extracts terms from one document per request
type Client struct {
	http      *resty.Client
	model     string
	maxTokens int
	schema    *jsonschema.Schema
	logger    *slog.Logger
}

// NewClient creates a new extraction client
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && (r.StatusCode() == 429 || r.StatusCode() >= 500)
		})
	if cfg.RetryWaitTime > 0 {
		http.SetRetryWaitTime(cfg.RetryWaitTime)
	}

	return &Client{
		http:      http,
		model:     cfg.Model,
		maxTokens: maxTokens,
		schema:    schema,
		logger:    logger,
	}, nil
}

// OpenAI-compatible chat completion structures
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
	File     *filePart `json:"file,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type filePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Extract sends file to the model and returns the terms it found
func (c *Client) Extract(ctx context.Context, file domain.File) ([]domain.ExtractedTerm, error) {
	if len(file.Data) == 0 {
		return nil, domain.NewInvalidInput(fmt.Sprintf("document %s is empty", file.Name))
	}

	mimeType := detectType(file)
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userPrompt},
				documentPart(file, mimeType),
			}},
		},
		MaxTokens:      c.maxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	start := time.Now()
	var resp chatResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post("/chat/completions")
	if err != nil {
		return nil, domain.NewUpstreamFailure("vision request failed", err)
	}

	if httpResp.IsError() {
		detail := strings.TrimSpace(string(httpResp.Body()))
		if resp.Error != nil && resp.Error.Message != "" {
			detail = resp.Error.Message
		}
		return nil, domain.NewUpstreamFailure(
			fmt.Sprintf("vision API returned HTTP %d", httpResp.StatusCode()),
			fmt.Errorf("%s", detail),
		)
	}
	if resp.Error != nil {
		return nil, domain.NewUpstreamFailure("vision API error", fmt.Errorf("%s", resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return nil, domain.NewUpstreamFailure("vision API returned no choices", nil)
	}

	terms, err := parseTerms(resp.Choices[0].Message.Content, c.schema)
	if err != nil {
		return nil, domain.NewUpstreamFailure("vision API returned an unusable reply", err)
	}

	c.logger.Debug("Document extracted",
		slog.String("file", file.Name),
		slog.String("mime_type", mimeType),
		slog.Int("terms", len(terms)),
		slog.Duration("duration", time.Since(start)),
	)

	return terms, nil
}

// detectType trusts a specific declared content type and sniffs otherwise
func detectType(file domain.File) string {
	declared := baseType(file.ContentType)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return baseType(mimetype.Detect(file.Data).String())
}

func baseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func documentPart(file domain.File, mimeType string) contentPart {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(file.Data))

	if mimeType == mimePDF {
		return contentPart{
			Type: "file",
			File: &filePart{Filename: file.Name, FileData: dataURL},
		}
	}
	return contentPart{
		Type:     "image_url",
		ImageURL: &imageURL{URL: dataURL, Detail: "high"},
	}
}
