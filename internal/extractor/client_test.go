package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL: srv.URL + "/v1/",
		APIKey:  "test-key",
		Model:   "gpt-4o",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func replyWith(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func TestExtractSendsImageAndParsesReply(t *testing.T) {
	var got chatRequest
	var rawParts []map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		var envelope struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.Unmarshal(body, &envelope))
		assert.NoError(t, json.Unmarshal(envelope.Messages[1].Content, &rawParts))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, replyWith(`{"results":[{"term":"Discount","value":"50","confidence":90,"evidence":"Disc 50","page":1}]}`))
	})

	terms, err := client.Extract(context.Background(), domain.File{
		Name:        "a.png",
		ContentType: "image/png",
		Data:        []byte("fake-png"),
	})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, domain.ExtractedTerm{Term: "Discount", Value: "50", Confidence: 90, Evidence: "Disc 50", Page: 1}, terms[0])

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, rawParts, 2)
	assert.Equal(t, "image_url", rawParts[1]["type"])
	imageURL := rawParts[1]["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,ZmFrZS1wbmc=", imageURL["url"])
}

func TestExtractSendsPDFAsFile(t *testing.T) {
	var rawParts []map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		assert.NoError(t, json.Unmarshal(envelope.Messages[1].Content, &rawParts))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, replyWith(`{"results":[]}`))
	})

	// No declared type: the PDF magic number is sniffed
	terms, err := client.Extract(context.Background(), domain.File{
		Name: "invoice.pdf",
		Data: []byte("%PDF-1.7\n%fake"),
	})
	require.NoError(t, err)
	assert.Empty(t, terms)

	require.Len(t, rawParts, 2)
	assert.Equal(t, "file", rawParts[1]["type"])
	file := rawParts[1]["file"].(map[string]any)
	assert.Equal(t, "invoice.pdf", file["filename"])
	assert.Contains(t, file["file_data"], "data:application/pdf;base64,")
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "api error body",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"invalid api key","type":"auth"}}`,
			wantErr: "vision API returned HTTP 401: invalid api key",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `upstream exploded`,
			wantErr: "vision API returned HTTP 500",
		},
		{
			name:    "error in 200 response",
			status:  http.StatusOK,
			body:    `{"error":{"message":"model overloaded"}}`,
			wantErr: "vision API error: model overloaded",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: "vision API returned no choices",
		},
		{
			name:    "schema failure",
			status:  http.StatusOK,
			body:    replyWith(`{"results":[{"value":"5"}]}`),
			wantErr: "unusable reply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if strings.HasPrefix(tt.body, "{") {
					w.Header().Set("Content-Type", "application/json")
				} else {
					w.Header().Set("Content-Type", "text/plain")
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.Extract(context.Background(), domain.File{Name: "a.png", ContentType: "image/png", Data: []byte("x")})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrUpstreamFailure))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.Extract(context.Background(), domain.File{Name: "empty.png"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		file domain.File
		want string
	}{
		{name: "declared", file: domain.File{ContentType: "image/jpeg", Data: []byte("%PDF-1.4")}, want: "image/jpeg"},
		{name: "declared with params", file: domain.File{ContentType: "Image/PNG; charset=binary"}, want: "image/png"},
		{name: "octet stream sniffed", file: domain.File{ContentType: "application/octet-stream", Data: []byte("%PDF-1.4\n")}, want: "application/pdf"},
		{name: "png sniffed", file: domain.File{Data: []byte("\x89PNG\r\n\x1a\n0000")}, want: "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectType(tt.file))
		})
	}
}
