package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/app/mutation"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

const (
	entityRestaurant = "restaurant"
	entityCategory   = "category"
	entityProduct    = "product"
	entityTable      = "table"
	entityProfile    = "profile"
)

// Service manages the restaurant setup: the restaurant itself, its menu and its tables.
type Service struct {
	store    interfaces.Store
	reporter *mutation.Reporter
	logger   logger.Logger
}

func NewService(store interfaces.Store, reporter *mutation.Reporter, logger logger.Logger) *Service {
	return &Service{
		store:    store,
		reporter: reporter,
		logger:   logger,
	}
}

func (s *Service) CreateRestaurant(ctx context.Context, cmd interfaces.CreateRestaurantCommand) (*domain.Restaurant, error) {
	r, err := domain.NewRestaurant(cmd.Name, strings.ToLower(cmd.Slug), cmd.Features)
	if err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityRestaurant, err)
	}
	if r.Features == nil {
		r.Features = []string{}
	}
	if err := s.store.Restaurants.Create(ctx, r); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityRestaurant, err)
	}

	if _, unknown := domain.ResolveCapabilities(r.Features); len(unknown) > 0 {
		s.logger.Info("unknown_capabilities", "Restaurant created with unknown features", "", map[string]interface{}{
			"restaurant_id": r.ID.String(),
			"features":      unknown,
		})
	}
	s.reporter.Done(ctx, "create", entityRestaurant, r.ID)
	return r, nil
}

func (s *Service) GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	return s.store.Restaurants.FindByID(ctx, id)
}

func (s *Service) ListRestaurants(ctx context.Context) ([]*domain.Restaurant, error) {
	return s.store.Restaurants.List(ctx)
}

func (s *Service) UpdateRestaurant(ctx context.Context, id uuid.UUID, cmd interfaces.UpdateRestaurantCommand) (*domain.Restaurant, error) {
	r, err := s.store.Restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityRestaurant, err)
	}
	if cmd.Name != nil {
		r.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Features != nil {
		r.Features = cmd.Features
	}
	if err := r.Validate(); err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityRestaurant, err)
	}
	if err := s.store.Restaurants.Update(ctx, r); err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityRestaurant, err)
	}

	s.reporter.Done(ctx, "update", entityRestaurant, id)
	return r, nil
}

func (s *Service) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Restaurants.Delete(ctx, id); err != nil {
		return s.reporter.Fail(ctx, "delete", entityRestaurant, err)
	}
	s.reporter.Done(ctx, "delete", entityRestaurant, id)
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, cmd interfaces.CategoryCommand) (*domain.Category, error) {
	if _, err := s.store.Restaurants.FindByID(ctx, cmd.RestaurantID); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityCategory, err)
	}
	c := &domain.Category{
		ID:           uuid.New(),
		RestaurantID: cmd.RestaurantID,
		Name:         strings.TrimSpace(cmd.Name),
		Position:     cmd.Position,
	}
	if err := c.Validate(); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityCategory, err)
	}
	if err := s.store.Categories.Create(ctx, c); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityCategory, err)
	}

	s.reporter.Done(ctx, "create", entityCategory, c.ID)
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Category, error) {
	return s.store.Categories.ListByRestaurant(ctx, restaurantID)
}

func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, cmd interfaces.CategoryCommand) (*domain.Category, error) {
	c, err := s.store.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityCategory, err)
	}
	c.Name = strings.TrimSpace(cmd.Name)
	c.Position = cmd.Position
	if err := c.Validate(); err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityCategory, err)
	}
	if err := s.store.Categories.Update(ctx, c); err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityCategory, err)
	}

	s.reporter.Done(ctx, "update", entityCategory, id)
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Categories.Delete(ctx, id); err != nil {
		return s.reporter.Fail(ctx, "delete", entityCategory, err)
	}
	s.reporter.Done(ctx, "delete", entityCategory, id)
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, cmd interfaces.ProductCommand) (*domain.Product, error) {
	p := &domain.Product{
		ID:           uuid.New(),
		RestaurantID: cmd.RestaurantID,
		Available:    true,
	}
	if err := s.applyProduct(ctx, p, cmd); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityProduct, err)
	}
	if err := s.store.Products.Create(ctx, p); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityProduct, err)
	}

	s.reporter.Done(ctx, "create", entityProduct, p.ID)
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.store.Products.FindByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Product, error) {
	return s.store.Products.ListByRestaurant(ctx, restaurantID)
}

// UpdateProduct changes the live product. Items already ordered keep the price they were
// created with.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, cmd interfaces.ProductCommand) (*domain.Product, error) {
	p, err := s.store.Products.FindByID(ctx, id)
	if err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityProduct, err)
	}
	cmd.RestaurantID = p.RestaurantID
	if err := s.applyProduct(ctx, p, cmd); err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityProduct, err)
	}
	if err := s.store.Products.Update(ctx, p); err != nil {
		return nil, s.reporter.Fail(ctx, "update", entityProduct, err)
	}

	s.reporter.Done(ctx, "update", entityProduct, id)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Products.Delete(ctx, id); err != nil {
		return s.reporter.Fail(ctx, "delete", entityProduct, err)
	}
	s.reporter.Done(ctx, "delete", entityProduct, id)
	return nil
}

func (s *Service) applyProduct(ctx context.Context, p *domain.Product, cmd interfaces.ProductCommand) error {
	if cmd.CategoryID != nil {
		category, err := s.store.Categories.FindByID(ctx, *cmd.CategoryID)
		if err != nil {
			return err
		}
		if category.RestaurantID != cmd.RestaurantID {
			return domain.Validationf("category belongs to another restaurant")
		}
	}
	p.CategoryID = cmd.CategoryID
	p.Name = strings.TrimSpace(cmd.Name)
	p.Description = strings.TrimSpace(cmd.Description)
	p.Price = cmd.Price
	if cmd.Available != nil {
		p.Available = *cmd.Available
	}
	return p.Validate()
}

func (s *Service) CreateTable(ctx context.Context, cmd interfaces.CreateTableCommand) (*domain.Table, error) {
	if _, err := s.store.Restaurants.FindByID(ctx, cmd.RestaurantID); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityTable, err)
	}
	t, err := domain.NewTable(cmd.RestaurantID, cmd.TableNumber)
	if err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityTable, err)
	}
	if err := s.store.Tables.Create(ctx, t); err != nil {
		return nil, s.reporter.Fail(ctx, "create", entityTable, err)
	}

	s.reporter.Done(ctx, "create", entityTable, t.ID)
	return t, nil
}

func (s *Service) GetTable(ctx context.Context, id uuid.UUID) (*domain.Table, error) {
	return s.store.Tables.FindByID(ctx, id)
}

func (s *Service) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Table, error) {
	return s.store.Tables.ListByRestaurant(ctx, restaurantID)
}

func (s *Service) DeleteTable(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Tables.Delete(ctx, id); err != nil {
		return s.reporter.Fail(ctx, "delete", entityTable, err)
	}
	s.reporter.Done(ctx, "delete", entityTable, id)
	return nil
}

// AssignProfile links a staff user to a restaurant and role.
func (s *Service) AssignProfile(ctx context.Context, userID uuid.UUID, cmd interfaces.ProfileCommand) (*domain.Profile, error) {
	if !cmd.Role.Valid() {
		return nil, s.reporter.Fail(ctx, "assign", entityProfile, domain.Validationf("unknown role %q", cmd.Role))
	}
	if cmd.RestaurantID != nil {
		if _, err := s.store.Restaurants.FindByID(ctx, *cmd.RestaurantID); err != nil {
			return nil, s.reporter.Fail(ctx, "assign", entityProfile, err)
		}
	}

	p := &domain.Profile{
		UserID:       userID,
		RestaurantID: cmd.RestaurantID,
		Role:         cmd.Role,
		FullName:     strings.TrimSpace(cmd.FullName),
	}
	if err := s.store.Profiles.Upsert(ctx, p); err != nil {
		return nil, s.reporter.Fail(ctx, "assign", entityProfile, err)
	}

	s.reporter.Done(ctx, "assign", entityProfile, userID)
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return s.store.Profiles.FindByUserID(ctx, userID)
}
