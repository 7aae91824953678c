package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivohq/rivo/pkg/logging"
)

func newTestHandler() *Handler {
	svc, _ := newTestService(NewInMemoryUserRepository())
	return NewHandler(svc, logging.New("error"))
}

func post(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

func TestHandlerRegisterAndLogin(t *testing.T) {
	h := newTestHandler()

	w := post(h.Register, "/api/auth/register", `{"email":"owner@shine.ae","password":"secret1","workspaceName":"Shine"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"workspace"`)
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.NotContains(t, w.Body.String(), "password")

	w = post(h.Register, "/api/auth/register", `{"email":"owner@shine.ae","password":"secret1","workspaceName":"Shine"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(h.Login, "/api/auth/login", `{"email":"owner@shine.ae","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(h.Login, "/api/auth/login", `{"email":"owner@shine.ae","password":"nope12"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
}

func TestHandlerRegisterValidation(t *testing.T) {
	h := newTestHandler()
	w := post(h.Register, "/api/auth/register", `{"email":"not-an-email","password":"123","workspaceName":"S"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid data","details":{"email":"email","password":"min=6","workspaceName":"min=2"}}`, w.Body.String())
}

func TestHandlerMe(t *testing.T) {
	h := newTestHandler()

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"not authenticated"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodDelete, "/api/auth/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
