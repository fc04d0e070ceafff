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

type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserInput carries a partial update; nil fields are left untouched
type UpdateUserInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

type UserService struct {
	store             *repository.Store
	tokens            *utils.TokenService
	bcryptCost        int
	enforceSelfAccess bool
	log               *logger.Logger
}

func NewUserService(store *repository.Store, tokens *utils.TokenService, bcryptCost int, enforceSelfAccess bool, log *logger.Logger) *UserService {
	return &UserService{
		store:             store,
		tokens:            tokens,
		bcryptCost:        bcryptCost,
		enforceSelfAccess: enforceSelfAccess,
		log:               log,
	}
}

// SelfAccessEnforced reports whether update and delete are limited to the user's own token
func (s *UserService) SelfAccessEnforced() bool {
	return s.enforceSelfAccess
}

func (s *UserService) List(ctx context.Context) ([]models.UserView, error) {
	users, err := s.store.Repositories().Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	views := make([]models.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return views, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (models.UserView, error) {
	user, err := s.store.Repositories().Users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.UserView{}, NotFoundError("User not found")
		}
		return models.UserView{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user.View(), nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (models.UserView, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return models.UserView{}, ValidationError("email and password are required")
	}

	user := &models.User{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if err := user.Password.Set(in.Password, s.bcryptCost); err != nil {
		return models.UserView{}, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if _, err := r.Users.GetByEmail(ctx, email); err == nil {
			return DuplicateError("Email already registered")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := r.Users.Insert(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return DuplicateError("Email already registered")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.UserView{}, wrapInternal("failed to create user", err)
	}

	s.log.WithFields(logger.Fields{"user_id": user.ID, "email": user.Email}).Info("User registered")
	return user.View(), nil
}

func (s *UserService) Update(ctx context.Context, caller *models.Identity, id uint, in UpdateUserInput) (models.UserView, error) {
	if err := s.authorizeSelf(caller, id); err != nil {
		return models.UserView{}, err
	}

	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		return models.UserView{}, ValidationError("email cannot be empty")
	}
	if in.Password != nil && *in.Password == "" {
		return models.UserView{}, ValidationError("password cannot be empty")
	}

	var updated *models.User
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		user, err := r.Users.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("User not found")
			}
			return err
		}

		if in.Email != nil {
			email := strings.TrimSpace(*in.Email)
			if email != user.Email {
				if _, err := r.Users.GetByEmail(ctx, email); err == nil {
					return DuplicateError("Email already registered")
				} else if !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				user.Email = email
			}
		}
		if in.FirstName != nil {
			user.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			user.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.Password != nil {
			if err := user.Password.Set(*in.Password, s.bcryptCost); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
		}

		if err := r.Users.Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return DuplicateError("Email already registered")
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return models.UserView{}, wrapInternal("failed to update user", err)
	}

	return updated.View(), nil
}

// Delete removes a user. Users that still own parcels are kept and reported as a conflict.
func (s *UserService) Delete(ctx context.Context, caller *models.Identity, id uint) error {
	if err := s.authorizeSelf(caller, id); err != nil {
		return err
	}

	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if _, err := r.Users.GetForUpdate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("User not found")
			}
			return err
		}

		owned, err := r.Parcels.CountByUser(ctx, id)
		if err != nil {
			return err
		}
		if owned > 0 {
			return ConflictError("User still owns %d parcel(s)", owned)
		}

		if err := r.Users.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("User not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return wrapInternal("failed to delete user", err)
	}

	s.log.WithFields(logger.Fields{"user_id": id}).Info("User deleted")
	return nil
}

// Login verifies the credentials and issues a user token
func (s *UserService) Login(ctx context.Context, email, password string) (string, models.UserView, error) {
	user, err := s.store.Repositories().Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.LogAuth(string(models.IdentityUser), 0, email, "login", false)
			return "", models.UserView{}, InvalidCredentialsError()
		}
		return "", models.UserView{}, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.Password.Verify(password) {
		s.log.LogAuth(string(models.IdentityUser), user.ID, email, "login", false)
		return "", models.UserView{}, InvalidCredentialsError()
	}

	token, err := s.tokens.Issue(models.UserIdentity(user.ID))
	if err != nil {
		return "", models.UserView{}, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.LogAuth(string(models.IdentityUser), user.ID, user.Email, "login", true)
	return token, user.View(), nil
}

func (s *UserService) authorizeSelf(caller *models.Identity, id uint) error {
	if !s.enforceSelfAccess {
		return nil
	}
	if caller == nil {
		return UnauthenticatedError("Authorization required")
	}
	if !caller.IsUserID(id) {
		return ForbiddenError("You can only modify your own account")
	}
	return nil
}

// wrapInternal passes service errors through and wraps everything else
func wrapInternal(msg string, err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
