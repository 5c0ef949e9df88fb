package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetTraceID(context.Background()))

	a := GetTraceID(SetTraceID(context.Background()))
	b := GetTraceID(SetTraceID(context.Background()))
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	assert.Equal(t, "abc", GetTraceID(WithTraceID(context.Background(), "abc")))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Count int `json:"count"`
	}

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr error
		errText string
	}{
		{name: "valid", body: `{"count": 3}`, want: 3},
		{name: "empty", body: "", wantErr: ErrEmptyBody},
		{name: "unknown field", body: `{"count": 3, "extra": true}`, errText: "unknown field"},
		{name: "trailing value", body: `{"count": 3} {}`, errText: "single JSON value"},
		{name: "malformed", body: `{"count": 3,}`, errText: "invalid character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			var got payload
			err := DecodeJSON(req, &got)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.Count)
			}
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	type tagged struct {
		Word string `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.Error(t, ValidateRequest(selfValidating{}))
	assert.NoError(t, ValidateRequest(&tagged{Word: "candid"}))
	assert.Error(t, ValidateRequest(&tagged{}))
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?count=4&bad=x&neg=-1", nil)

	n, err := QueryInt(req, "count", 5)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = QueryInt(req, "missing", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = QueryInt(req, "bad", 5)
	assert.Error(t, err)
	_, err = QueryInt(req, "neg", 5)
	assert.Error(t, err)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger(t)
	ctx := logger.WithLogger(WithTraceID(context.Background(), "trace-1"), log)
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusServiceUnavailable, "try later",
		errors.New("dial postgres://user:hunter2@db:5432/vocab failed"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ErrorResponse{Error: "try later", TraceID: "trace-1"}, body)

	entry, ok := buf.Find("API error response")
	require.True(t, ok)
	assert.Equal(t, slog.LevelError, entry.Level)
	assert.NotContains(t, buf.String(), "hunter2")
}
