package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/validation"
	"github.com/google/uuid"
)

const LoginMethodPassword = "password"

// AccountService owns every transition of an account: signup, login,
// federated login, profile completion and update, password change and
// picture attach/detach.
type AccountService struct {
	accounts AccountStore
	hasher   *PasswordHasher
	tokens   *TokenService
	pictures *PictureService
	now      func() time.Time
}

func NewAccountService(accounts AccountStore, hasher *PasswordHasher, tokens *TokenService, pictures *PictureService) *AccountService {
	return &AccountService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		pictures: pictures,
		now:      time.Now,
	}
}

// Signup creates a local account. Input is validated and the email checked
// for uniqueness before anything is hashed, uploaded or written.
func (s *AccountService) Signup(ctx context.Context, req *dto.SignupRequest, picture *PictureUpload) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	email := models.NormalizeEmail(req.Email)
	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         trimmed(req.Name),
		PasswordHash: &hash,
		Age:          req.Age,
		Gender:       normalizedGender(req.Gender),
		Provenance:   models.ProvenanceLocal,
		Role:         models.RoleUser,
	}

	if picture != nil {
		ref, err := s.pictures.Store(ctx, account.ID, picture)
		if err != nil {
			return nil, err
		}
		account.Picture = &ref
	}
	account.RecomputeProfile()

	if err := s.accounts.Create(ctx, account); err != nil {
		if account.Picture != nil {
			s.pictures.Discard(ctx, *account.Picture)
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	metrics.Signups.WithLabelValues(string(models.ProvenanceLocal)).Inc()
	slog.Info("account created", "account_id", account.ID, "provenance", account.Provenance)
	return s.issue(account)
}

// Login checks an email and password. Absent accounts, accounts without a
// password and mismatches all fail the same way.
func (s *AccountService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Logins.WithLabelValues(LoginMethodPassword, metrics.OutcomeFailure).Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if !account.HasPassword() || !s.hasher.Matches(*account.PasswordHash, req.Password) {
		metrics.Logins.WithLabelValues(LoginMethodPassword, metrics.OutcomeFailure).Inc()
		return nil, ErrInvalidCredentials
	}

	s.recordLogin(ctx, account, LoginMethodPassword)
	return s.issue(account)
}

// FederatedLogin signs in a verified external identity, creating or linking
// an account as needed. It never creates a second account for the same
// identity or email.
func (s *AccountService) FederatedLogin(ctx context.Context, identity *oauth.Identity) (*dto.AuthResponse, error) {
	if identity == nil || identity.Subject == "" {
		return nil, invalidf("identity has no subject")
	}

	account, err := s.findFederated(ctx, identity)
	if err != nil {
		return nil, err
	}

	if account == nil {
		account, err = s.createFederated(ctx, identity)
		if err != nil {
			return nil, err
		}
	} else if err := s.linkFederated(ctx, account, identity); err != nil {
		return nil, err
	}

	s.recordLogin(ctx, account, identity.Provider)
	return s.issue(account)
}

// findFederated looks up by federated id, then by email. A nil account with a
// nil error means the identity is new.
func (s *AccountService) findFederated(ctx context.Context, identity *oauth.Identity) (*models.Account, error) {
	account, err := s.accounts.FindByFederatedID(ctx, identity.FederatedID())
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	email := models.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, invalidf("%s did not provide an email address", identity.Provider)
	}
	if !identity.EmailVerified {
		return nil, invalidf("%s email address is not verified", identity.Provider)
	}

	account, err = s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

func (s *AccountService) createFederated(ctx context.Context, identity *oauth.Identity) (*models.Account, error) {
	federatedID := identity.FederatedID()
	account := &models.Account{
		ID:          uuid.New(),
		Email:       models.NormalizeEmail(identity.Email),
		Name:        optional(identity.Name),
		Picture:     optional(identity.Picture),
		Provenance:  models.ProvenanceFederated,
		FederatedID: &federatedID,
		Role:        models.RoleUser,
	}
	account.RecomputeProfile()

	err := s.accounts.Create(ctx, account)
	if err == nil {
		metrics.Signups.WithLabelValues(string(models.ProvenanceFederated)).Inc()
		slog.Info("account created", "account_id", account.ID, "provenance", account.Provenance, "provider", identity.Provider)
		return account, nil
	}
	if !errors.Is(err, repository.ErrDuplicateEmail) && !errors.Is(err, repository.ErrDuplicateFederatedID) {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// A concurrent first login won the insert; continue with its row.
	existing, ferr := s.findFederated(ctx, identity)
	if ferr != nil || existing == nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if err := s.linkFederated(ctx, existing, identity); err != nil {
		return nil, err
	}
	return existing, nil
}

// linkFederated attaches the identity to an existing account and fills in
// name and picture only where they are unset.
func (s *AccountService) linkFederated(ctx context.Context, account *models.Account, identity *oauth.Identity) error {
	changed := false
	if account.FederatedID == nil {
		federatedID := identity.FederatedID()
		account.FederatedID = &federatedID
		changed = true
	}
	if account.Provenance != models.ProvenanceFederated {
		account.Provenance = models.ProvenanceFederated
		changed = true
	}
	if account.Name == nil && strings.TrimSpace(identity.Name) != "" {
		account.Name = optional(identity.Name)
		changed = true
	}
	if account.Picture == nil && identity.Picture != "" {
		account.Picture = optional(identity.Picture)
		changed = true
	}
	account.RecomputeProfile()

	if !changed {
		return nil
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to link %s identity: %w", identity.Provider, err)
	}
	return nil
}

// CompleteProfile sets age and gender together. A password is attached only
// to a federated account that has none yet. Sending one for any other account
// is rejected, since replacing a password goes through ChangePassword.
func (s *AccountService) CompleteProfile(ctx context.Context, id uuid.UUID, req *dto.CompleteProfileRequest) (*dto.AccountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var hash *string
	if req.Password != nil {
		if account.Provenance != models.ProvenanceFederated || account.HasPassword() {
			return nil, invalid(fieldError("password", errPasswordAlreadySet))
		}
		h, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	account.Age = req.Age
	account.Gender = normalizedGender(req.Gender)
	if hash != nil {
		account.PasswordHash = hash
	}
	account.RecomputeProfile()

	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to complete profile: %w", err)
	}
	return respond(account), nil
}

// UpdateProfile applies the present fields and, optionally, a new picture.
// The superseded picture is deleted best-effort once the new one is saved.
func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest, picture *PictureUpload) (*dto.AccountResponse, error) {
	if req.Empty() && picture == nil {
		return nil, invalidf("nothing to update")
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = trimmed(req.Name)
	}
	if req.Age != nil {
		account.Age = req.Age
	}
	if req.Gender != nil {
		account.Gender = normalizedGender(req.Gender)
	}

	if picture == nil {
		account.RecomputeProfile()
		if err := s.accounts.Save(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		return respond(account), nil
	}

	if err := s.replacePicture(ctx, account, picture); err != nil {
		return nil, err
	}
	return respond(account), nil
}

// ChangePassword sets a new password. The current one must match when the
// account already has a password; a federated account setting its first
// password skips that check.
func (s *AccountService) ChangePassword(ctx context.Context, id uuid.UUID, req *dto.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}

	account, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if account.HasPassword() {
		if req.CurrentPassword == nil || *req.CurrentPassword == "" {
			return invalid(fieldError("current_password", errors.New("current password is required")))
		}
		if !s.hasher.Matches(*account.PasswordHash, *req.CurrentPassword) {
			return ErrInvalidCredentials
		}
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	account.PasswordHash = &hash

	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	slog.Info("password changed", "account_id", account.ID)
	return nil
}

// AttachPicture uploads a picture and makes it the account's current one.
func (s *AccountService) AttachPicture(ctx context.Context, id uuid.UUID, picture *PictureUpload) (*dto.AccountResponse, error) {
	if picture == nil {
		return nil, invalid(fieldError("picture", errors.New("picture is required")))
	}

	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.replacePicture(ctx, account, picture); err != nil {
		return nil, err
	}
	return respond(account), nil
}

// DetachPicture clears the picture reference and deletes the stored object best-effort.
func (s *AccountService) DetachPicture(ctx context.Context, id uuid.UUID) (*dto.AccountResponse, error) {
	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Picture == nil {
		return nil, ErrNothingToDelete
	}

	old := *account.Picture
	account.Picture = nil
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to remove picture: %w", err)
	}
	s.pictures.Discard(ctx, old)
	return respond(account), nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*dto.AccountResponse, error) {
	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return respond(account), nil
}

func (s *AccountService) ListAccounts(ctx context.Context, q *dto.ListAccountsQuery) (*dto.AccountListResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, invalid(err)
	}
	q.Normalize()

	accounts, total, err := s.accounts.List(ctx, repository.ListFilter{
		Search:     q.Search,
		Provenance: models.Provenance(q.Provenance),
		Complete:   q.Complete,
		Limit:      q.Limit,
		Offset:     (q.Page - 1) * q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	resp := &dto.AccountListResponse{
		Accounts: make([]dto.AccountResponse, 0, len(accounts)),
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
	}
	for i := range accounts {
		resp.Accounts = append(resp.Accounts, dto.NewAccountResponse(&accounts[i]))
	}
	return resp, nil
}

// replacePicture uploads, saves, and then discards the superseded picture.
// If the save fails the fresh upload is discarded instead.
func (s *AccountService) replacePicture(ctx context.Context, account *models.Account, picture *PictureUpload) error {
	ref, err := s.pictures.Store(ctx, account.ID, picture)
	if err != nil {
		return err
	}

	old := account.Picture
	account.Picture = &ref
	account.RecomputeProfile()

	if err := s.accounts.Save(ctx, account); err != nil {
		s.pictures.Discard(ctx, ref)
		return fmt.Errorf("failed to save picture: %w", err)
	}
	if old != nil && *old != ref {
		s.pictures.Discard(ctx, *old)
	}
	return nil
}

func (s *AccountService) find(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

func (s *AccountService) recordLogin(ctx context.Context, account *models.Account, method string) {
	now := s.now()
	if err := s.accounts.TouchLogin(ctx, account.ID, now); err != nil {
		slog.Warn("failed to record login", "account_id", account.ID, "error", err)
	} else {
		account.LastLoginAt = &now
	}
	metrics.Logins.WithLabelValues(method, metrics.OutcomeSuccess).Inc()
}

func (s *AccountService) issue(account *models.Account) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   dto.NewAccountResponse(account),
	}, nil
}

func respond(account *models.Account) *dto.AccountResponse {
	resp := dto.NewAccountResponse(account)
	return &resp
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return optional(*s)
}

func normalizedGender(g *string) *string {
	if g == nil {
		return nil
	}
	n := validation.NormalizeGender(*g)
	return &n
}
