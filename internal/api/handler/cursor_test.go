package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCursorRoundTrip(t *testing.T) {
	in := &domain.JobCursor{
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC),
		JobID:     "0d7c4a0e-94e5-4e3b-9d5a-1f9a6c0b2e11",
	}

	out, err := DecodeJobCursor(EncodeJobCursor(in))
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.JobID, out.JobID)
}

func TestDecodeJobCursorInvalid(t *testing.T) {
	got, err := DecodeJobCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, s := range []string{"!!", "bm9waXBl", "YWJjfGlk", "MTIzfA"} {
		_, err := DecodeJobCursor(s)
		assert.Error(t, err, s)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewInvalidInput("bad"), http.StatusBadRequest},
		{domain.ErrJobNotFound, http.StatusNotFound},
		{domain.ErrJobTerminal, http.StatusConflict},
		{domain.NewConflict("dup", nil), http.StatusConflict},
		{domain.NewUpstreamFailure("vision", nil), http.StatusBadGateway},
		{domain.NewPersistenceFailure("db", nil), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
