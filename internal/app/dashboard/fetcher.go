package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

// Fetcher loads a full snapshot of the acting user's restaurant.
type Fetcher struct {
	auth     interfaces.Authenticator
	profiles interfaces.ProfileRepository
	reader   interfaces.SnapshotReader
	clock    clock.Clock
	logger   logger.Logger
}

func NewFetcher(
	auth interfaces.Authenticator,
	profiles interfaces.ProfileRepository,
	reader interfaces.SnapshotReader,
	clk clock.Clock,
	logger logger.Logger,
) *Fetcher {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Fetcher{
		auth:     auth,
		profiles: profiles,
		reader:   reader,
		clock:    clk,
		logger:   logger,
	}
}

// ResolveRestaurant returns the restaurant linked to the signed-in user's profile.
func (f *Fetcher) ResolveRestaurant(ctx context.Context) (uuid.UUID, *domain.Profile, error) {
	user, err := f.auth.CurrentUser(ctx)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: %v", domain.ErrAuthMissing, err)
	}
	if user == nil {
		return uuid.Nil, nil, domain.ErrAuthMissing
	}

	profile, err := f.profiles.FindByUserID(ctx, user.ID)
	if err != nil {
		if isNotFound(err) {
			return uuid.Nil, nil, domain.ErrNoRestaurantAssociation
		}
		return uuid.Nil, nil, &domain.FetchError{Entity: "profile", Err: err}
	}
	if profile.RestaurantID == nil {
		return uuid.Nil, profile, domain.ErrNoRestaurantAssociation
	}
	return *profile.RestaurantID, profile, nil
}

// Fetch reads the floor (restaurant and tables) and the open sessions with their order items
// and service requests. It has no side effects and is safe to repeat.
func (f *Fetcher) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	restaurantID, _, err := f.ResolveRestaurant(ctx)
	if err != nil {
		return nil, err
	}

	restaurant, tables, err := f.reader.ReadFloor(ctx, restaurantID)
	if err != nil {
		return nil, &domain.FetchError{Entity: "tables", Err: err}
	}

	sessions, err := f.reader.ReadOpenSessions(ctx, restaurantID)
	if err != nil {
		return nil, &domain.FetchError{Entity: "sessions", Err: err}
	}

	caps, unknown := domain.ResolveCapabilities(restaurant.Features)
	if len(unknown) > 0 {
		f.logger.Debug("unknown_capabilities", "Restaurant lists unknown features", "", map[string]interface{}{
			"restaurant_id": restaurantID.String(),
			"features":      unknown,
		})
	}

	if tables == nil {
		tables = []domain.Table{}
	}
	if sessions == nil {
		sessions = []domain.SessionView{}
	}

	return &domain.Snapshot{
		RestaurantID: restaurantID,
		Capabilities: caps,
		Tables:       tables,
		Sessions:     sessions,
		FetchedAt:    f.clock.Now().UTC(),
	}, nil
}
