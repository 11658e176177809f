package acceptance

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

// AuthAcceptanceTestSuite walks through account management as real clients would
type AuthAcceptanceTestSuite struct {
	serverSuite
}

func (s *AuthAcceptanceTestSuite) TestHealth() {
	status, env := s.call(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, status)
	s.True(env.Success)
}

func (s *AuthAcceptanceTestSuite) TestFirstAccountRunsTheShop() {
	owner := s.signUp("owner", "")
	s.Equal("admin", owner.Role)

	painter := s.signUp("painter", "executor")
	s.Equal("executor", painter.Role)

	customer := s.signUp("customer", "buyer")
	s.Equal("buyer", customer.Role)

	status, env := s.call(http.MethodGet, "/admin/users?role=executor", owner, nil)
	s.Require().Equal(http.StatusOK, status)
	var users []struct {
		Username string `json:"username"`
	}
	s.decode(env, &users)
	s.Require().Len(users, 1)
	s.Equal("painter", users[0].Username)

	status, env = s.call(http.MethodGet, "/admin/users", customer, nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("INSUFFICIENT_ROLE", env.code())
}

func (s *AuthAcceptanceTestSuite) TestRenameKeepsInitialUsername() {
	owner := s.signUp("owner", "")
	customer := s.signUp("customer", "")

	status, _ := s.call(http.MethodPut, fmt.Sprintf("/admin/users/%d", customer.ID), owner, map[string]string{"username": "vip-customer"})
	s.Require().Equal(http.StatusOK, status)

	again := s.signIn("vip-customer", "secret123")
	status, env := s.call(http.MethodGet, "/users/me", again, nil)
	s.Require().Equal(http.StatusOK, status)
	var me struct {
		Username        string `json:"username"`
		InitialUsername string `json:"initial_username"`
	}
	s.decode(env, &me)
	s.Equal("vip-customer", me.Username)
	s.Equal("customer", me.InitialUsername)
}

func (s *AuthAcceptanceTestSuite) TestDeletedAccountLosesAccess() {
	owner := s.signUp("owner", "")
	customer := s.signUp("customer", "")

	status, _ := s.call(http.MethodDelete, fmt.Sprintf("/admin/users/%d", customer.ID), owner, nil)
	s.Require().Equal(http.StatusOK, status)

	status, env := s.call(http.MethodGet, "/users/me", customer, nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("USER_NOT_FOUND", env.code())

	status, env = s.call(http.MethodDelete, fmt.Sprintf("/admin/users/%d", owner.ID), owner, nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("FORBIDDEN", env.code())
}

func TestAuthAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthAcceptanceTestSuite))
}
