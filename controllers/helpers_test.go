package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/clock"
	"github.com/DaniilNightingale/EMPIREsite3/middleware"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// apiResponse mirrors the response envelope
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func (r apiResponse) errorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

func setupControllerTest(t *testing.T) *gorm.DB {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())
	testutil.UseTestConfig(t)
	db := testutil.NewTestDB(t)

	SetClock(clock.NewFake(testNow))
	t.Cleanup(func() { SetClock(nil) })
	return db
}

// performRequest runs a single handler behind a route pattern, authenticated as user
// (nil for anonymous). body may be a string, a []byte or anything JSON-encodable.
func performRequest(t *testing.T, user *models.User, method, route, path string, body interface{}, handler gin.HandlerFunc) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	router := gin.New()
	router.Handle(method, route, testutil.MockAuth(user), handler)

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewBuffer(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "response is not JSON: %s", w.Body.String())
	}
	return w, resp
}

func decodeData(t *testing.T, resp apiResponse, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, out), "unexpected data: %s", string(resp.Data))
}

func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, resp apiResponse, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	require.False(t, resp.Success)
	require.Equal(t, code, resp.errorCode())
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
}

