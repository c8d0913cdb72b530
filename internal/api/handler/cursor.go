package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

var errInvalidCursor = errors.New("invalid cursor format")

// DecodeJobCursor parses an opaque page token. An empty token is the first page.
func DecodeJobCursor(token string) (*domain.JobCursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidCursor, err)
	}

	nanos, jobID, ok := strings.Cut(string(raw), "|")
	if !ok || jobID == "" {
		return nil, errInvalidCursor
	}

	ts, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp", errInvalidCursor)
	}

	return &domain.JobCursor{CreatedAt: time.Unix(0, ts).UTC(), JobID: jobID}, nil
}

// EncodeJobCursor renders the keyset position as an opaque page token
func EncodeJobCursor(cursor *domain.JobCursor) string {
	raw := strconv.FormatInt(cursor.CreatedAt.UnixNano(), 10) + "|" + cursor.JobID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}
