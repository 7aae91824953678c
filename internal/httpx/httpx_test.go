package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeAndValidateReportsFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","email":"nope"}`))
	rec := httptest.NewRecorder()

	var body sampleRequest
	ok := DecodeAndValidate(rec, req, &body)

	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid data", resp.Error)
	assert.Equal(t, "min=2", resp.Details["name"])
	assert.Equal(t, "email", resp.Details["email"])
}

func TestDecodeAndValidateRejectsBadJSON(t *testing.T) {
	for _, body := range []string{"", "{not json"} {
		rec := httptest.NewRecorder()
		var dst sampleRequest
		ok := DecodeAndValidate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &dst)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestDecodeAndValidateAccepts(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Rivo","email":"a@b.co"}`))
	rec := httptest.NewRecorder()
	var body sampleRequest
	require.True(t, DecodeAndValidate(rec, req, &body))
	assert.Equal(t, "Rivo", body.Name)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "not found")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}
