package services

import (
	"context"
	"io"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/repository"
	"github.com/google/uuid"
)

// AccountStore is the persistence the account state machine depends on.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	Save(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*models.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, filter repository.ListFilter) ([]models.Account, int64, error)
}

// AnalyticsStore answers the aggregate queries behind the admin dashboard.
type AnalyticsStore interface {
	Counts(ctx context.Context, now time.Time) (*repository.Counts, error)
	GenderCounts(ctx context.Context) ([]repository.LabelCount, error)
	AgeCounts(ctx context.Context) ([]repository.AgeCount, int64, error)
	DailyRegistrations(ctx context.Context, since time.Time) ([]repository.DayCount, error)
}

// PictureStore holds picture bytes and hands back opaque references.
type PictureStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// IdentityProvider runs a redirect based authorization-code flow.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Identity, error)
}

// AppleIdentityVerifier checks native Sign in with Apple identity tokens.
type AppleIdentityVerifier interface {
	Verify(ctx context.Context, identityToken, fullName string) (*oauth.Identity, error)
}
