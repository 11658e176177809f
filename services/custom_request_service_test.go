package services

import (
	"context"
	"testing"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CustomRequestServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *CustomRequestService
	ctx     context.Context
	admin   *models.User
	buyer   *models.User
	other   *models.User
}

func (s *CustomRequestServiceTestSuite) SetupTest() {
	s.db = setupServiceTestDB(s.T())
	s.service = NewCustomRequestService(s.db)
	s.ctx = context.Background()
	s.admin = createTestUser(s.T(), s.db, models.AdminUserID, "admin", models.RoleAdmin)
	s.buyer = createTestUser(s.T(), s.db, 2, "buyer", models.RoleBuyer)
	s.other = createTestUser(s.T(), s.db, 3, "other", models.RoleBuyer)
}

func (s *CustomRequestServiceTestSuite) submit(caller *models.User) *models.CustomRequest {
	request, err := s.service.Create(s.ctx, caller, CreateCustomRequestInput{
		ProductName: "Custom bust",
		ModelLinks:  []string{"https://models.example/bust"},
	})
	s.Require().NoError(err)
	return request
}

func (s *CustomRequestServiceTestSuite) TestCreate() {
	request, err := s.service.Create(s.ctx, s.buyer, CreateCustomRequestInput{
		ProductID:       uintPtr(12),
		ProductName:     "  Dragon  ",
		AdditionalName:  strPtr("Red variant"),
		ModelLinks:      []string{"https://models.example/a", "", " https://models.example/b "},
		RequiredHeights: []string{"10cm", "15cm"},
		Images:          []string{"uploads/1.png", "uploads/2.png", "uploads/3.png"},
	})
	s.Require().NoError(err)

	s.Equal(s.buyer.ID, request.UserID)
	s.Equal("buyer", request.User.Username)
	s.Equal("Dragon", request.ProductName)
	s.Equal(models.RequestStatusPending, request.Status)
	s.Equal(models.StringList{"https://models.example/a", "https://models.example/b"}, request.ModelLinks)
	s.Len(request.Images, 3)
	s.Require().NotNil(request.ProductID)
	s.Equal(uint(12), *request.ProductID)
}

func (s *CustomRequestServiceTestSuite) TestCreateValidation() {
	links := []string{"a", "b", "c", "d", "e", "f"}
	tests := []struct {
		name string
		in   CreateCustomRequestInput
		code string
	}{
		{"missing name", CreateCustomRequestInput{ProductName: "  "}, "MISSING_PRODUCT_NAME"},
		{"six links", CreateCustomRequestInput{ProductName: "x", ModelLinks: links}, "TOO_MANY_LINKS"},
		{"six heights", CreateCustomRequestInput{ProductName: "x", RequiredHeights: links}, "TOO_MANY_HEIGHTS"},
		{"four images", CreateCustomRequestInput{ProductName: "x", Images: links[:4]}, "TOO_MANY_IMAGES"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Create(s.ctx, s.buyer, tt.in)
			assertServiceError(s.T(), err, ErrValidation, tt.code)
		})
	}

	_, err := s.service.Create(s.ctx, s.buyer, CreateCustomRequestInput{ProductName: "x", ModelLinks: links[:5]})
	s.NoError(err, "five links are allowed")
}

func (s *CustomRequestServiceTestSuite) TestListScoping() {
	mine := s.submit(s.buyer)
	theirs := s.submit(s.other)

	own, err := s.service.List(s.ctx, s.buyer)
	s.Require().NoError(err)
	s.Require().Len(own, 1)
	s.Equal(mine.ID, own[0].ID)

	all, err := s.service.List(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.ElementsMatch([]uint{mine.ID, theirs.ID}, []uint{all[0].ID, all[1].ID})
}

func (s *CustomRequestServiceTestSuite) TestUpdateStatus() {
	request := s.submit(s.buyer)
	waiting := models.RequestStatusWaiting

	updated, err := s.service.Update(s.ctx, s.admin, request.ID, UpdateCustomRequestInput{
		Status:     &waiting,
		AdminNotes: strPtr("quote sent"),
	})
	s.Require().NoError(err)
	s.Equal(models.RequestStatusWaiting, updated.Status)
	s.Equal("quote sent", updated.AdminNotes)
	s.Equal(2, updated.Version)

	// Same status again is a no-op
	again, err := s.service.Update(s.ctx, s.admin, request.ID, UpdateCustomRequestInput{Status: &waiting})
	s.Require().NoError(err)
	s.Equal(2, again.Version)

	fulfilled := models.RequestStatusFulfilled
	_, err = s.service.Update(s.ctx, s.admin, request.ID, UpdateCustomRequestInput{Status: &fulfilled})
	assertServiceError(s.T(), err, ErrInvalidTransition, "INVALID_STATUS_TRANSITION")

	// Notes stay editable after the status is final
	noted, err := s.service.Update(s.ctx, s.admin, request.ID, UpdateCustomRequestInput{AdminNotes: strPtr("follow up")})
	s.Require().NoError(err)
	s.Equal("follow up", noted.AdminNotes)
}

func (s *CustomRequestServiceTestSuite) TestUpdateErrors() {
	request := s.submit(s.buyer)
	rejected := models.RequestStatusRejected

	_, err := s.service.Update(s.ctx, s.buyer, request.ID, UpdateCustomRequestInput{Status: &rejected})
	assertServiceError(s.T(), err, ErrForbidden, "FORBIDDEN")

	bogus := models.RequestStatus("archived")
	_, err = s.service.Update(s.ctx, s.admin, request.ID, UpdateCustomRequestInput{Status: &bogus})
	assertServiceError(s.T(), err, ErrValidation, "INVALID_STATUS")

	_, err = s.service.Update(s.ctx, s.admin, 404, UpdateCustomRequestInput{Status: &rejected})
	assertServiceError(s.T(), err, ErrNotFound, "REQUEST_NOT_FOUND")

	_, err = s.service.Update(s.ctx, s.admin, request.ID, UpdateCustomRequestInput{Status: &rejected, Version: intPtr(7)})
	assertServiceError(s.T(), err, ErrConflict, "VERSION_CONFLICT")
}

func TestCustomRequestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CustomRequestServiceTestSuite))
}
