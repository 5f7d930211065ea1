package catalog_test

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/menuapp/internal/adapter/auth"
	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/adapter/memory"
	"github.com/YelzhanWeb/menuapp/internal/app/catalog"
	"github.com/YelzhanWeb/menuapp/internal/app/mutation"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

func newService() *catalog.Service {
	repos := memory.New(nil).Repositories()
	reporter := mutation.NewReporter(auth.ContextAuthenticator{}, mutation.NopRecorder{}, nil, logger.Nop())
	return catalog.NewService(repos, reporter, logger.Nop())
}

func TestRestaurantLifecycle(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := newService()

	r, err := svc.CreateRestaurant(ctx, interfaces.CreateRestaurantCommand{Name: " Olive ", Slug: "Olive"})
	c.Assert(err, qt.IsNil)
	c.Check(r.Name, qt.Equals, "Olive")
	c.Check(r.Slug, qt.Equals, "olive")
	c.Check(r.Features, qt.DeepEquals, []string{})

	_, err = svc.CreateRestaurant(ctx, interfaces.CreateRestaurantCommand{Name: "Other olive", Slug: "olive"})
	c.Check(err, qt.ErrorIs, domain.ErrValidation)

	name := "Olive Tree"
	updated, err := svc.UpdateRestaurant(ctx, r.ID, interfaces.UpdateRestaurantCommand{
		Name:     &name,
		Features: []string{"ordering", "kitchen_display"},
	})
	c.Assert(err, qt.IsNil)
	c.Check(updated.Name, qt.Equals, "Olive Tree")

	all, err := svc.ListRestaurants(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 1)
	c.Check(all[0].Features, qt.DeepEquals, []string{"ordering", "kitchen_display"})

	c.Assert(svc.DeleteRestaurant(ctx, r.ID), qt.IsNil)
	err = svc.DeleteRestaurant(ctx, r.ID)
	var mErr *domain.MutationError
	c.Assert(errors.As(err, &mErr), qt.IsTrue)
	c.Check(mErr.Notification, qt.Equals, "The restaurant no longer exists.")
}

func TestProductsAndCategories(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := newService()

	r, err := svc.CreateRestaurant(ctx, interfaces.CreateRestaurantCommand{Name: "Olive", Slug: "olive"})
	c.Assert(err, qt.IsNil)
	other, err := svc.CreateRestaurant(ctx, interfaces.CreateRestaurantCommand{Name: "Fig", Slug: "fig"})
	c.Assert(err, qt.IsNil)

	mains, err := svc.CreateCategory(ctx, interfaces.CategoryCommand{RestaurantID: r.ID, Name: "Mains", Position: 2})
	c.Assert(err, qt.IsNil)
	_, err = svc.CreateCategory(ctx, interfaces.CategoryCommand{RestaurantID: r.ID, Name: "Starters", Position: 1})
	c.Assert(err, qt.IsNil)
	cats, err := svc.ListCategories(ctx, r.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(cats, qt.HasLen, 2)
	c.Check(cats[0].Name, qt.Equals, "Starters")

	p, err := svc.CreateProduct(ctx, interfaces.ProductCommand{
		RestaurantID: r.ID,
		CategoryID:   &mains.ID,
		Name:         "Risotto",
		Price:        decimal.RequireFromString("14.20"),
	})
	c.Assert(err, qt.IsNil)
	c.Check(p.Available, qt.IsTrue)

	_, err = svc.CreateProduct(ctx, interfaces.ProductCommand{
		RestaurantID: other.ID,
		CategoryID:   &mains.ID,
		Name:         "Stolen risotto",
		Price:        decimal.RequireFromString("1"),
	})
	c.Check(err, qt.ErrorIs, domain.ErrValidation)

	_, err = svc.CreateProduct(ctx, interfaces.ProductCommand{RestaurantID: r.ID, Name: "Free lunch", Price: decimal.RequireFromString("-1")})
	c.Check(err, qt.ErrorIs, domain.ErrValidation)

	off := false
	p, err = svc.UpdateProduct(ctx, p.ID, interfaces.ProductCommand{
		CategoryID: &mains.ID,
		Name:       "Risotto",
		Price:      decimal.RequireFromString("15"),
		Available:  &off,
	})
	c.Assert(err, qt.IsNil)
	c.Check(p.Available, qt.IsFalse)
	c.Check(p.RestaurantID, qt.Equals, r.ID)

	c.Assert(svc.DeleteCategory(ctx, mains.ID), qt.IsNil)
	p, err = svc.GetProduct(ctx, p.ID)
	c.Assert(err, qt.IsNil)
	c.Check(p.CategoryID, qt.IsNil)
}

func TestTables(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := newService()

	r, err := svc.CreateRestaurant(ctx, interfaces.CreateRestaurantCommand{Name: "Olive", Slug: "olive"})
	c.Assert(err, qt.IsNil)

	for _, n := range []int{3, 1, 2} {
		_, err := svc.CreateTable(ctx, interfaces.CreateTableCommand{RestaurantID: r.ID, TableNumber: n})
		c.Assert(err, qt.IsNil)
	}
	_, err = svc.CreateTable(ctx, interfaces.CreateTableCommand{RestaurantID: r.ID, TableNumber: 2})
	c.Check(err, qt.ErrorIs, domain.ErrValidation)
	_, err = svc.CreateTable(ctx, interfaces.CreateTableCommand{RestaurantID: r.ID, TableNumber: 1000})
	c.Check(err, qt.ErrorIs, domain.ErrValidation)
	_, err = svc.CreateTable(ctx, interfaces.CreateTableCommand{RestaurantID: uuid.New(), TableNumber: 1})
	c.Check(err, qt.ErrorIs, domain.ErrNotFound)

	tables, err := svc.ListTables(ctx, r.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(tables, qt.HasLen, 3)
	for i, tbl := range tables {
		c.Check(tbl.TableNumber, qt.Equals, i+1)
	}
}
