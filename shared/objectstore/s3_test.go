package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		want     string
	}{
		{name: "empty", endpoint: "", want: ""},
		{name: "host and port", endpoint: "localhost:9000", want: "http://localhost:9000"},
		{name: "ssl flag", endpoint: "minio.internal", useSSL: true, want: "https://minio.internal"},
		{name: "scheme wins over flag", endpoint: "http://minio:9000", useSSL: true, want: "http://minio:9000"},
		{name: "path dropped", endpoint: "https://acct.r2.cloudflarestorage.com/bucket", want: "https://acct.r2.cloudflarestorage.com"},
		{name: "whitespace", endpoint: "  minio:9000 ", want: "http://minio:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EndpointURL(tt.endpoint, tt.useSSL))
		})
	}
}
