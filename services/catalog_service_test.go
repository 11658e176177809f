package services

import (
	"context"
	"testing"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *CatalogService
	ctx     context.Context
	admin   *models.User
	buyer   *models.User
}

func (s *CatalogServiceTestSuite) SetupTest() {
	s.db = setupServiceTestDB(s.T())
	s.service = NewCatalogService(s.db)
	s.ctx = context.Background()
	s.admin = createTestUser(s.T(), s.db, models.AdminUserID, "admin", models.RoleAdmin)
	s.buyer = createTestUser(s.T(), s.db, 2, "buyer", models.RoleBuyer)
}

func (s *CatalogServiceTestSuite) productInput(name string) ProductInput {
	return ProductInput{
		Name:             name,
		Description:      strPtr("Resin miniature"),
		AdditionalImages: []string{"products/a.png", "  ", "products/b.png"},
		PriceOptions: []models.PriceOption{
			{Size: "10cm", Price: 1000, ResinML: floatPtr(35)},
			{Size: "20cm", Price: 2100, ResinML: floatPtr(120)},
		},
	}
}

func (s *CatalogServiceTestSuite) TestCreateProduct() {
	product, err := s.service.Create(s.ctx, s.admin, s.productInput("  Knight "))
	s.Require().NoError(err)

	s.Equal("Knight", product.Name)
	s.True(product.IsVisible, "products are visible unless hidden explicitly")
	s.Equal(1, product.PartsCount)
	s.Equal(models.StringList{"products/a.png", "products/b.png"}, product.AdditionalImages)
	s.Require().Len(product.PriceOptions, 2)
	s.Equal("10cm", product.PriceOptions[0].Size)
	s.Require().NotNil(product.PriceOptions[0].ResinML, "the admin sees resin quantities")
}

func (s *CatalogServiceTestSuite) TestCreateRequiresAdmin() {
	_, err := s.service.Create(s.ctx, s.buyer, s.productInput("Knight"))
	assertServiceError(s.T(), err, ErrForbidden, "FORBIDDEN")
}

func (s *CatalogServiceTestSuite) TestProductValidation() {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
		code   string
	}{
		{"missing name", func(in *ProductInput) { in.Name = " " }, "MISSING_NAME"},
		{"negative parts", func(in *ProductInput) { in.PartsCount = -1 }, "INVALID_PARTS_COUNT"},
		{"no options", func(in *ProductInput) { in.PriceOptions = nil }, "MISSING_PRICE_OPTIONS"},
		{"blank size", func(in *ProductInput) { in.PriceOptions[0].Size = "" }, "INVALID_PRICE_OPTION"},
		{"duplicate size", func(in *ProductInput) { in.PriceOptions[1].Size = "10cm" }, "INVALID_PRICE_OPTION"},
		{"zero price", func(in *ProductInput) { in.PriceOptions[0].Price = 0 }, "INVALID_PRICE_OPTION"},
		{"negative resin", func(in *ProductInput) { in.PriceOptions[0].ResinML = floatPtr(-1) }, "INVALID_PRICE_OPTION"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := s.productInput("Knight")
			tt.mutate(&in)
			_, err := s.service.Create(s.ctx, s.admin, in)
			assertServiceError(s.T(), err, ErrValidation, tt.code)
		})
	}
}

func (s *CatalogServiceTestSuite) TestVisibilityAndPricing() {
	visible, err := s.service.Create(s.ctx, s.admin, s.productInput("Knight"))
	s.Require().NoError(err)
	hiddenInput := s.productInput("Prototype")
	hiddenInput.IsVisible = boolPtr(false)
	hidden, err := s.service.Create(s.ctx, s.admin, hiddenInput)
	s.Require().NoError(err)
	s.False(hidden.IsVisible)

	setTestCoefficient(s.T(), s.db, 6.0)

	products, err := s.service.List(s.ctx, s.buyer, ProductFilter{})
	s.Require().NoError(err)
	s.Require().Len(products, 1)
	s.Equal(visible.ID, products[0].ID)
	s.Equal(int64(1143), products[0].PriceOptions[0].Price)
	s.Equal(int64(2400), products[0].PriceOptions[1].Price)
	s.Nil(products[0].PriceOptions[0].ResinML)

	anonymous, err := s.service.List(s.ctx, nil, ProductFilter{})
	s.Require().NoError(err)
	s.Len(anonymous, 1)

	all, err := s.service.List(s.ctx, s.admin, ProductFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.NotNil(all[0].PriceOptions[0].ResinML)

	_, err = s.service.Get(s.ctx, s.buyer, hidden.ID)
	assertServiceError(s.T(), err, ErrNotFound, "PRODUCT_NOT_FOUND")

	got, err := s.service.Get(s.ctx, s.admin, hidden.ID)
	s.Require().NoError(err)
	s.Equal("Prototype", got.Name)

	var stored models.PriceOption
	s.Require().NoError(s.db.Where("product_id = ? AND size = ?", visible.ID, "10cm").First(&stored).Error)
	s.Equal(int64(1000), stored.Price, "stored base prices never change with the coefficient")
}

func (s *CatalogServiceTestSuite) TestSearch() {
	knight, err := s.service.Create(s.ctx, s.admin, s.productInput("Knight"))
	s.Require().NoError(err)
	dragonInput := s.productInput("Dragon")
	dragonInput.Description = strPtr("Winged beast")
	_, err = s.service.Create(s.ctx, s.admin, dragonInput)
	s.Require().NoError(err)

	byName, err := s.service.List(s.ctx, s.buyer, ProductFilter{Search: "kNiGhT"})
	s.Require().NoError(err)
	s.Require().Len(byName, 1)
	s.Equal(knight.ID, byName[0].ID)

	byDescription, err := s.service.List(s.ctx, s.buyer, ProductFilter{Search: "winged"})
	s.Require().NoError(err)
	s.Require().Len(byDescription, 1)
	s.Equal("Dragon", byDescription[0].Name)

	byID, err := s.service.List(s.ctx, s.buyer, ProductFilter{Search: "1"})
	s.Require().NoError(err)
	s.Require().Len(byID, 1)
	s.Equal(knight.ID, byID[0].ID)
}

func (s *CatalogServiceTestSuite) TestUpdateReplacesOptionsAndKeepsCounters() {
	product, err := s.service.Create(s.ctx, s.admin, s.productInput("Knight"))
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{"sales_count": 5, "favorites_count": 2}).Error)

	in := s.productInput("Knight v2")
	in.PriceOptions = []models.PriceOption{{Size: "15cm", Price: 1500}}
	in.IsVisible = boolPtr(false)

	updated, err := s.service.Update(s.ctx, s.admin, product.ID, in)
	s.Require().NoError(err)
	s.Equal("Knight v2", updated.Name)
	s.False(updated.IsVisible)
	s.Require().Len(updated.PriceOptions, 1)
	s.Equal("15cm", updated.PriceOptions[0].Size)
	s.Equal(int64(5), updated.SalesCount)
	s.Equal(int64(2), updated.FavoritesCount)

	var options int64
	s.Require().NoError(s.db.Model(&models.PriceOption{}).Where("product_id = ?", product.ID).Count(&options).Error)
	s.Equal(int64(1), options)

	_, err = s.service.Update(s.ctx, s.admin, 404, in)
	assertServiceError(s.T(), err, ErrNotFound, "PRODUCT_NOT_FOUND")
}

func (s *CatalogServiceTestSuite) TestDeleteProduct() {
	product, err := s.service.Create(s.ctx, s.admin, s.productInput("Knight"))
	s.Require().NoError(err)
	_, err = s.service.ToggleFavorite(s.ctx, s.buyer, product.ID)
	s.Require().NoError(err)

	err = s.service.Delete(s.ctx, s.buyer, product.ID)
	assertServiceError(s.T(), err, ErrForbidden, "FORBIDDEN")

	s.Require().NoError(s.service.Delete(s.ctx, s.admin, product.ID))

	var favorites int64
	s.Require().NoError(s.db.Model(&models.Favorite{}).Count(&favorites).Error)
	s.Zero(favorites)

	err = s.service.Delete(s.ctx, s.admin, product.ID)
	assertServiceError(s.T(), err, ErrNotFound, "PRODUCT_NOT_FOUND")
}

func (s *CatalogServiceTestSuite) TestToggleFavorite() {
	product, err := s.service.Create(s.ctx, s.admin, s.productInput("Knight"))
	s.Require().NoError(err)

	on, err := s.service.ToggleFavorite(s.ctx, s.buyer, product.ID)
	s.Require().NoError(err)
	s.True(on.Favorited)
	s.Equal(int64(1), on.FavoritesCount)

	favorites, err := s.service.ListFavorites(s.ctx, s.buyer)
	s.Require().NoError(err)
	s.Require().Len(favorites, 1)
	s.Equal(product.ID, favorites[0].ID)

	off, err := s.service.ToggleFavorite(s.ctx, s.buyer, product.ID)
	s.Require().NoError(err)
	s.False(off.Favorited)
	s.Equal(int64(0), off.FavoritesCount)

	favorites, err = s.service.ListFavorites(s.ctx, s.buyer)
	s.Require().NoError(err)
	s.Empty(favorites)
}

func (s *CatalogServiceTestSuite) TestFavoritesCountNeverNegative() {
	product, err := s.service.Create(s.ctx, s.admin, s.productInput("Knight"))
	s.Require().NoError(err)

	_, err = s.service.ToggleFavorite(s.ctx, s.buyer, product.ID)
	s.Require().NoError(err)
	// Counter drifted out of step with the favorite rows
	s.Require().NoError(s.db.Model(&models.Product{}).Where("id = ?", product.ID).
		UpdateColumn("favorites_count", 0).Error)

	off, err := s.service.ToggleFavorite(s.ctx, s.buyer, product.ID)
	s.Require().NoError(err)
	s.False(off.Favorited)
	s.Equal(int64(0), off.FavoritesCount)
}

func (s *CatalogServiceTestSuite) TestToggleFavoriteOnMissingOrHiddenProduct() {
	_, err := s.service.ToggleFavorite(s.ctx, s.buyer, 404)
	assertServiceError(s.T(), err, ErrNotFound, "PRODUCT_NOT_FOUND")

	hidden := createTestProduct(s.T(), s.db, "Prototype", false)
	_, err = s.service.ToggleFavorite(s.ctx, s.buyer, hidden.ID)
	assertServiceError(s.T(), err, ErrNotFound, "PRODUCT_NOT_FOUND")
}

func TestCatalogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}
