package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/routes"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/DaniilNightingale/EMPIREsite3/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// envelope mirrors the API response envelope
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e envelope) code() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

// apiSuite serves the full router over a fresh in-memory database for every test
type apiSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB
	images *services.MockImageService
}

func (s *apiSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	t := s.T()

	cfg := testutil.UseTestConfig(t)
	s.db = testutil.NewTestDB(t)

	previous := services.GetImageService()
	s.images = services.NewMockImageService()
	s.images.SetAsMockForTesting()
	t.Cleanup(func() { services.SetImageService(previous) })

	s.router = routes.SetupRouter(cfg, nil)
}

func (s *apiSuite) createUser(username string, role models.Role) *models.User {
	return testutil.CreateUser(s.T(), s.db, username, role)
}

func (s *apiSuite) createAdmin() *models.User {
	return testutil.CreateUserWithID(s.T(), s.db, models.AdminUserID, "admin", models.RoleAdmin)
}

// do sends a JSON request as user (nil for anonymous)
func (s *apiSuite) do(method, path string, user *models.User, body interface{}) (*httptest.ResponseRecorder, envelope) {
	authorization := ""
	if user != nil {
		authorization = testutil.AuthHeader(s.T(), user)
	}
	return s.doJSONWithHeader(method, path, authorization, body)
}

// doJSONWithHeader sends a JSON request with a raw Authorization header value
func (s *apiSuite) doJSONWithHeader(method, path, authorization string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewBuffer(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return s.serve(req)
}

// doWithToken sends a request with a raw Authorization header value
func (s *apiSuite) doWithToken(method, path, authorization string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authorization)
	return s.serve(req)
}

// upload posts a single file in the multipart "file" field
func (s *apiSuite) upload(user *models.User, filename string, content []byte) (*httptest.ResponseRecorder, envelope) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if user != nil {
		req.Header.Set("Authorization", testutil.AuthHeader(s.T(), user))
	}
	return s.serve(req)
}

func (s *apiSuite) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), "response is not JSON: %s", w.Body.String())
	}
	return w, env
}

func (s *apiSuite) decode(env envelope, out interface{}) {
	s.Require().NoError(json.Unmarshal(env.Data, out), "unexpected data: %s", string(env.Data))
}

func (s *apiSuite) requireStatus(w *httptest.ResponseRecorder, status int) {
	s.Require().Equal(status, w.Code, "body: %s", w.Body.String())
}

func (s *apiSuite) requireError(w *httptest.ResponseRecorder, env envelope, status int, code string) {
	s.Require().Equal(status, w.Code, "body: %s", w.Body.String())
	s.False(env.Success)
	s.Equal(code, env.code())
}
