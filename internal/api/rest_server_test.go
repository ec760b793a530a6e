package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annel0/game-gallery/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *RestServer {
	t.Helper()

	// Изолируем prometheus-регистр между тестами
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenManager(bytes.Repeat([]byte{0x33}, 32), 0)
	require.NoError(t, err)

	return NewRestServer(Config{
		Port:        ":0",
		AuthService: auth.NewService(auth.NewMemoryUserRepo(), tokens),
	})
}

func doJSON(t *testing.T, rs *RestServer, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	rs.router.ServeHTTP(w, req)
	return w
}

type credsBody struct {
	Token string `json:"token"`
	User  struct {
		ID       uint64 `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

func TestRegisterEndpoint(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(t, rs, "POST", "/api/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var creds credsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &creds))
	assert.NotEmpty(t, creds.Token)
	assert.NotZero(t, creds.User.ID)
	assert.Equal(t, "alice", creds.User.Username)
	assert.Equal(t, "alice@example.com", creds.User.Email)

	// Хеш пароля не должен попадать в ответ
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegisterEndpoint_Duplicate(t *testing.T) {
	rs := newTestServer(t)

	payload := map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}
	w := doJSON(t, rs, "POST", "/api/register", payload, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, rs, "POST", "/api/register", payload, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"msg":"User already exists"}`, w.Body.String())
}

func TestRegisterEndpoint_MissingFields(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(t, rs, "POST", "/api/register", map[string]string{
		"username": "alice",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	rs := newTestServer(t)

	doJSON(t, rs, "POST", "/api/register", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "hunter22",
	}, nil)

	w := doJSON(t, rs, "POST", "/api/login", map[string]string{
		"email": "bob@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var creds credsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &creds))
	assert.NotEmpty(t, creds.Token)
	assert.Equal(t, "bob", creds.User.Username)
}

// Неизвестный email и неверный пароль дают одинаковое тело ответа.
func TestLoginEndpoint_InvalidCredentials(t *testing.T) {
	rs := newTestServer(t)

	doJSON(t, rs, "POST", "/api/register", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "hunter22",
	}, nil)

	wrongPassword := doJSON(t, rs, "POST", "/api/login", map[string]string{
		"email": "bob@example.com", "password": "wrong",
	}, nil)
	unknownEmail := doJSON(t, rs, "POST", "/api/login", map[string]string{
		"email": "nobody@example.com", "password": "hunter22",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.JSONEq(t, `{"msg":"Invalid credentials"}`, wrongPassword.Body.String())
}

func TestDeleteEndpoint(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(t, rs, "POST", "/api/register", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "secret123",
	}, nil)
	var creds credsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &creds))

	w = doJSON(t, rs, "DELETE", "/api/users/me", nil, map[string]string{
		TokenHeader: creds.Token,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"msg":"User deleted successfully"}`, w.Body.String())

	// После удаления вход невозможен
	w = doJSON(t, rs, "POST", "/api/login", map[string]string{
		"email": "carol@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Повторное удаление — идемпотентный успех
	w = doJSON(t, rs, "DELETE", "/api/users/me", nil, map[string]string{
		TokenHeader: creds.Token,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteEndpoint_NoToken(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(t, rs, "DELETE", "/api/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"No token, authorization denied"}`, w.Body.String())
}

func TestDeleteEndpoint_InvalidToken(t *testing.T) {
	rs := newTestServer(t)

	doJSON(t, rs, "POST", "/api/register", map[string]string{
		"username": "dave", "email": "dave@example.com", "password": "secret123",
	}, nil)

	w := doJSON(t, rs, "DELETE", "/api/users/me", nil, map[string]string{
		TokenHeader: "not-a-valid-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"Token is not valid"}`, w.Body.String())

	// Аккаунт не пострадал
	w = doJSON(t, rs, "POST", "/api/login", map[string]string{
		"email": "dave@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(t, rs, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCORSPreflights(t *testing.T) {
	rs := newTestServer(t)

	req, _ := http.NewRequest("OPTIONS", "/api/login", nil)
	w := httptest.NewRecorder()
	rs.router.ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "x-auth-token")
}
