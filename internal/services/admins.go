package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/internal/repository"
	"github.com/chachabrian/sendit-backend/pkg/utils"
)

type RegisterAdminInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type AdminService struct {
	store      *repository.Store
	tokens     *utils.TokenService
	bcryptCost int
	log        *logger.Logger
}

func NewAdminService(store *repository.Store, tokens *utils.TokenService, bcryptCost int, log *logger.Logger) *AdminService {
	return &AdminService{store: store, tokens: tokens, bcryptCost: bcryptCost, log: log}
}

func (s *AdminService) List(ctx context.Context) ([]models.AdminView, error) {
	admins, err := s.store.Repositories().Admins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	views := make([]models.AdminView, 0, len(admins))
	for i := range admins {
		views = append(views, admins[i].View())
	}
	return views, nil
}

func (s *AdminService) Get(ctx context.Context, id uint) (models.AdminView, error) {
	admin, err := s.store.Repositories().Admins.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.AdminView{}, NotFoundError("Admin not found")
		}
		return models.AdminView{}, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin.View(), nil
}

func (s *AdminService) Register(ctx context.Context, in RegisterAdminInput) (models.AdminView, error) {
	admin := &models.Admin{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
	}
	if admin.FirstName == "" || admin.LastName == "" || admin.Email == "" || in.Password == "" {
		return models.AdminView{}, ValidationError("first_name, last_name, email and password are required")
	}
	if err := admin.Password.Set(in.Password, s.bcryptCost); err != nil {
		return models.AdminView{}, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if _, err := r.Admins.GetByEmail(ctx, admin.Email); err == nil {
			return DuplicateError("Email already registered")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := r.Admins.Insert(ctx, admin); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return DuplicateError("Email already registered")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.AdminView{}, wrapInternal("failed to register admin", err)
	}

	s.log.WithFields(logger.Fields{"admin_id": admin.ID, "email": admin.Email}).Info("Admin registered")
	return admin.View(), nil
}

// Login verifies the credentials and issues an admin token
func (s *AdminService) Login(ctx context.Context, email, password string) (string, models.AdminView, error) {
	admin, err := s.store.Repositories().Admins.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.LogAuth(string(models.IdentityAdmin), 0, email, "login", false)
			return "", models.AdminView{}, InvalidCredentialsError()
		}
		return "", models.AdminView{}, fmt.Errorf("failed to load admin: %w", err)
	}

	if !admin.Password.Verify(password) {
		s.log.LogAuth(string(models.IdentityAdmin), admin.ID, email, "login", false)
		return "", models.AdminView{}, InvalidCredentialsError()
	}

	token, err := s.tokens.Issue(models.AdminIdentity(admin.ID))
	if err != nil {
		return "", models.AdminView{}, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.LogAuth(string(models.IdentityAdmin), admin.ID, admin.Email, "login", true)
	return token, admin.View(), nil
}

// requireAdmin resolves the caller to an existing admin record inside the transaction
func requireAdmin(ctx context.Context, r *repository.Repositories, caller models.Identity) (*models.Admin, error) {
	if !caller.IsAdmin() {
		return nil, ForbiddenError("Admin access required")
	}
	admin, err := r.Admins.Get(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ForbiddenError("Admin access required")
		}
		return nil, err
	}
	return admin, nil
}
