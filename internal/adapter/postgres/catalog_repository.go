package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

// NewStore wires every repository over one pool.
func NewStore(db DB) interfaces.Store {
	return interfaces.Store{
		Restaurants:     &restaurantRepository{db: db},
		Profiles:        &profileRepository{db: db},
		Categories:      &categoryRepository{db: db},
		Products:        &productRepository{db: db},
		Tables:          &tableRepository{db: db},
		Sessions:        &sessionRepository{db: db},
		OrderItems:      &orderItemRepository{db: db},
		ServiceRequests: &serviceRequestRepository{db: db},
		Payments:        &paymentRepository{db: db},
		Snapshots:       &snapshotReader{db: db},
	}
}

type restaurantRepository struct {
	db DB
}

const restaurantColumns = `id, name, slug, features, created_at`

func scanRestaurant(row Row) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.Features, &r.CreatedAt); err != nil {
		return nil, err
	}
	if r.Features == nil {
		r.Features = []string{}
	}
	return &r, nil
}

func (r *restaurantRepository) Create(ctx context.Context, rest *domain.Restaurant) error {
	query := `
		INSERT INTO restaurants (id, name, slug, features, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, rest.ID, rest.Name, rest.Slug, rest.Features, rest.CreatedAt)
	if err != nil {
		return wrapErr("insert restaurant", err)
	}
	return nil
}

func (r *restaurantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	rest, err := scanRestaurant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("find restaurant", err)
	}
	return rest, nil
}

func (r *restaurantRepository) List(ctx context.Context) ([]*domain.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("query restaurants", err)
	}
	defer rows.Close()

	var out []*domain.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, wrapErr("scan restaurant", err)
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

func (r *restaurantRepository) Update(ctx context.Context, rest *domain.Restaurant) error {
	query := `UPDATE restaurants SET name = $1, features = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, rest.Name, rest.Features, rest.ID)
	return expectOne("update restaurant", tag, err)
}

func (r *restaurantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	return expectOne("delete restaurant", tag, err)
}

type profileRepository struct {
	db DB
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT user_id, restaurant_id, role, full_name FROM profiles WHERE user_id = $1`

	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.RestaurantID, &p.Role, &p.FullName)
	if err != nil {
		return nil, wrapErr("find profile", err)
	}
	return &p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, restaurant_id, role, full_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET restaurant_id = EXCLUDED.restaurant_id, role = EXCLUDED.role, full_name = EXCLUDED.full_name
	`
	if _, err := r.db.Exec(ctx, query, p.UserID, p.RestaurantID, p.Role, p.FullName); err != nil {
		return wrapErr("upsert profile", err)
	}
	return nil
}

type categoryRepository struct {
	db DB
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `INSERT INTO categories (id, restaurant_id, name, position) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Exec(ctx, query, c.ID, c.RestaurantID, c.Name, c.Position); err != nil {
		return wrapErr("insert category", err)
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT id, restaurant_id, name, position FROM categories WHERE id = $1`

	var c domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Position); err != nil {
		return nil, wrapErr("find category", err)
	}
	return &c, nil
}

func (r *categoryRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Category, error) {
	query := `
		SELECT id, restaurant_id, name, position
		FROM categories
		WHERE restaurant_id = $1
		ORDER BY position, name
	`
	rows, err := r.db.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, wrapErr("query categories", err)
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Position); err != nil {
			return nil, wrapErr("scan category", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *categoryRepository) Update(ctx context.Context, c *domain.Category) error {
	tag, err := r.db.Exec(ctx, `UPDATE categories SET name = $1, position = $2 WHERE id = $3`, c.Name, c.Position, c.ID)
	return expectOne("update category", tag, err)
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return expectOne("delete category", tag, err)
}

type productRepository struct {
	db DB
}

const productColumns = `id, restaurant_id, category_id, name, description, price, available`

func scanProduct(row Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.RestaurantID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Available)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, restaurant_id, category_id, name, description, price, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.RestaurantID, p.CategoryID, p.Name, p.Description, p.Price, p.Available)
	if err != nil {
		return wrapErr("insert product", err)
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("find product", err)
	}
	return p, nil
}

func (r *productRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE restaurant_id = $1 ORDER BY name`
	rows, err := r.db.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, wrapErr("query products", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapErr("scan product", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, price = $4, available = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query, p.CategoryID, p.Name, p.Description, p.Price, p.Available, p.ID)
	return expectOne("update product", tag, err)
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return expectOne("delete product", tag, err)
}

type tableRepository struct {
	db DB
}

func (r *tableRepository) Create(ctx context.Context, t *domain.Table) error {
	query := `INSERT INTO tables (id, restaurant_id, table_number) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, t.ID, t.RestaurantID, t.TableNumber); err != nil {
		return wrapErr("insert table", err)
	}
	return nil
}

func (r *tableRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Table, error) {
	var t domain.Table
	err := r.db.QueryRow(ctx, `SELECT id, restaurant_id, table_number FROM tables WHERE id = $1`, id).
		Scan(&t.ID, &t.RestaurantID, &t.TableNumber)
	if err != nil {
		return nil, wrapErr("find table", err)
	}
	return &t, nil
}

func (r *tableRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Table, error) {
	tables, err := queryTables(ctx, r.db, restaurantID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Table, len(tables))
	for i := range tables {
		out[i] = &tables[i]
	}
	return out, nil
}

func (r *tableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tables WHERE id = $1`, id)
	return expectOne("delete table", tag, err)
}

func queryTables(ctx context.Context, db DB, restaurantID uuid.UUID) ([]domain.Table, error) {
	query := `
		SELECT id, restaurant_id, table_number
		FROM tables
		WHERE restaurant_id = $1
		ORDER BY table_number ASC
	`
	rows, err := db.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, wrapErr("query tables", err)
	}
	defer rows.Close()

	tables := []domain.Table{}
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.TableNumber); err != nil {
			return nil, wrapErr("scan table", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
