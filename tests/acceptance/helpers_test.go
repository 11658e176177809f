package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/DaniilNightingale/EMPIREsite3/routes"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/DaniilNightingale/EMPIREsite3/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

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

// account is a signed-in client of the running server
type account struct {
	ID    uint
	Role  string
	Token string
}

// serverSuite runs the production router behind a real HTTP listener.
// Every test starts from an empty in-memory database.
type serverSuite struct {
	suite.Suite
	server *httptest.Server
	images *services.MockImageService
}

func (s *serverSuite) SetupSuite() {
	testutil.RequireTestEnvironmentOrSkip(s.T())
	gin.SetMode(gin.TestMode)
}

func (s *serverSuite) SetupTest() {
	t := s.T()
	cfg := testutil.UseTestConfig(t)
	testutil.NewTestDB(t)

	previous := services.GetImageService()
	s.images = services.NewMockImageService()
	s.images.SetAsMockForTesting()
	t.Cleanup(func() { services.SetImageService(previous) })

	s.server = httptest.NewServer(routes.SetupRouter(cfg, nil))
	t.Cleanup(s.server.Close)
}

func (s *serverSuite) url(path string) string {
	return s.server.URL + "/api/v1" + path
}

// call sends a JSON request and decodes the envelope
func (s *serverSuite) call(method, path string, as *account, body interface{}) (int, envelope) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.url(path), reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, as)
}

func (s *serverSuite) uploadFile(as *account, filename string, content []byte) (int, envelope) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.url("/uploads"), body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.send(req, as)
}

func (s *serverSuite) send(req *http.Request, as *account) (int, envelope) {
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+as.Token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *serverSuite) decode(env envelope, out interface{}) {
	s.Require().NoError(json.Unmarshal(env.Data, out), "unexpected data: %s", string(env.Data))
}

// signUp registers through the API and returns the signed-in account
func (s *serverSuite) signUp(username, role string) *account {
	body := map[string]string{"username": username, "password": "secret123"}
	if role != "" {
		body["role"] = role
	}
	status, env := s.call(http.MethodPost, "/register", nil, body)
	s.Require().Equal(http.StatusCreated, status, "register %s: %s", username, env.code())
	return s.session(env)
}

// signIn logs in through the API
func (s *serverSuite) signIn(username, password string) *account {
	status, env := s.call(http.MethodPost, "/login", nil, map[string]string{"username": username, "password": password})
	s.Require().Equal(http.StatusOK, status, "login %s: %s", username, env.code())
	return s.session(env)
}

func (s *serverSuite) session(env envelope) *account {
	var payload struct {
		User struct {
			ID   uint   `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	s.decode(env, &payload)
	return &account{ID: payload.User.ID, Role: payload.User.Role, Token: payload.Token.AccessToken}
}
