package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrDuplicateFederatedID = errors.New("federated id already linked")
)

const uniqueViolation = "23505"

// ListFilter narrows ListAccounts. Zero values mean "no filter".
type ListFilter struct {
	Search     string
	Provenance models.Provenance
	Complete   *bool
	Limit      int
	Offset     int
}

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return translateError(r.db.WithContext(ctx).Create(account).Error)
}

// Save writes the whole row; concurrent writers resolve last-write-wins.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	return translateError(r.db.WithContext(ctx).Save(account).Error)
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *AccountRepository) FindByFederatedID(ctx context.Context, federatedID string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("federated_id = ?", federatedID).First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TouchLogin records a successful login without running save hooks.
func (r *AccountRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Table(models.Account{}.TableName()).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *AccountRepository) List(ctx context.Context, filter ListFilter) ([]models.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Account{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("email LIKE ?", "%"+escapeLike(strings.ToLower(s))+"%")
	}
	if filter.Provenance != "" {
		q = q.Where("provenance = ?", filter.Provenance)
	}
	if filter.Complete != nil {
		q = q.Where("profile_complete = ?", *filter.Complete)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []models.Account
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "federated") {
			return ErrDuplicateFederatedID
		}
		return ErrDuplicateEmail
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}
