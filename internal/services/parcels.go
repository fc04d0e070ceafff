package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/internal/repository"
)

type CreateParcelInput struct {
	Item          string
	Weight        float64
	Description   string
	Cost          float64
	DestinationID *uint
}

// UpdateParcelInput carries a partial update; nil fields are left untouched
type UpdateParcelInput struct {
	Item              *string
	Description       *string
	Weight            *float64
	Cost              *float64
	DestinationID     *uint
	// DetachDestination clears the destination; it wins over DestinationID
	DetachDestination bool
	Status            *string
}

type ParcelService struct {
	store    *repository.Store
	storage  Storage
	notifier Notifier
	log      *logger.Logger
}

func NewParcelService(store *repository.Store, storage Storage, notifier Notifier, log *logger.Logger) *ParcelService {
	return &ParcelService{store: store, storage: storage, notifier: notifier, log: log}
}

func (s *ParcelService) view(p *models.Parcel) models.ParcelView {
	v := p.View()
	if v.Image != "" && s.storage != nil {
		v.Image = s.storage.URL(v.Image)
	}
	return v
}

// Create stores a parcel owned by the calling user
func (s *ParcelService) Create(ctx context.Context, caller models.Identity, in CreateParcelInput) (models.ParcelView, error) {
	if !caller.IsUser() {
		return models.ParcelView{}, ForbiddenError("Only users can create parcels")
	}

	item := strings.TrimSpace(in.Item)
	if item == "" || in.Weight == 0 {
		return models.ParcelView{}, ValidationError("parcel_item and parcel_weight are required")
	}
	if in.Weight < 0 || in.Cost < 0 {
		return models.ParcelView{}, ValidationError("parcel_weight and parcel_cost cannot be negative")
	}

	parcel := &models.Parcel{
		Item:          item,
		Description:   strings.TrimSpace(in.Description),
		Weight:        in.Weight,
		Cost:          in.Cost,
		Status:        models.ParcelStatusPending,
		UserID:        caller.ID,
		DestinationID: in.DestinationID,
	}

	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if _, err := r.Users.Get(ctx, caller.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ForbiddenError("Only users can create parcels")
			}
			return err
		}
		if err := checkDestination(ctx, r, in.DestinationID); err != nil {
			return err
		}
		return r.Parcels.Insert(ctx, parcel)
	})
	if err != nil {
		return models.ParcelView{}, wrapInternal("failed to create parcel", err)
	}

	s.log.LogParcel(parcel.ID, parcel.UserID, "create", nil)
	return s.view(parcel), nil
}

func (s *ParcelService) Get(ctx context.Context, id uint) (models.ParcelView, error) {
	parcel, err := s.store.Repositories().Parcels.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.ParcelView{}, NotFoundError("Parcel not found")
		}
		return models.ParcelView{}, fmt.Errorf("failed to get parcel: %w", err)
	}
	return s.view(parcel), nil
}

// List returns the caller's own parcels, or every parcel for an admin
func (s *ParcelService) List(ctx context.Context, caller models.Identity) ([]models.ParcelView, error) {
	repos := s.store.Repositories()

	var (
		parcels []models.Parcel
		err     error
	)
	if caller.IsAdmin() {
		parcels, err = repos.Parcels.List(ctx)
	} else {
		parcels, err = repos.Parcels.ListByUser(ctx, caller.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}

	views := make([]models.ParcelView, 0, len(parcels))
	for i := range parcels {
		views = append(views, s.view(&parcels[i]))
	}
	return views, nil
}

// Update applies a partial update. Only the owner may update, admins included in the refusal.
func (s *ParcelService) Update(ctx context.Context, caller models.Identity, id uint, in UpdateParcelInput) (models.ParcelView, error) {
	var (
		updated  *models.Parcel
		previous string
		owner    *models.User
	)
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		parcel, err := loadOwnedParcel(ctx, r, caller, id)
		if err != nil {
			return err
		}
		previous = parcel.Status

		if in.Item != nil {
			item := strings.TrimSpace(*in.Item)
			if item == "" {
				return ValidationError("parcel_item cannot be empty")
			}
			parcel.Item = item
		}
		if in.Description != nil {
			parcel.Description = strings.TrimSpace(*in.Description)
		}
		if in.Weight != nil {
			if *in.Weight <= 0 {
				return ValidationError("parcel_weight must be positive")
			}
			parcel.Weight = *in.Weight
		}
		if in.Cost != nil {
			if *in.Cost < 0 {
				return ValidationError("parcel_cost cannot be negative")
			}
			parcel.Cost = *in.Cost
		}
		switch {
		case in.DetachDestination:
			parcel.DestinationID = nil
		case in.DestinationID != nil:
			if err := checkDestination(ctx, r, in.DestinationID); err != nil {
				return err
			}
			parcel.DestinationID = in.DestinationID
		}
		if in.Status != nil {
			status := strings.TrimSpace(*in.Status)
			if status == "" {
				return ValidationError("parcel_status cannot be empty")
			}
			parcel.Status = status

			if owner, err = r.Users.Get(ctx, parcel.UserID); err != nil {
				return err
			}
		}

		if err := r.Parcels.Update(ctx, parcel); err != nil {
			return err
		}
		updated = parcel
		return nil
	})
	if err != nil {
		return models.ParcelView{}, s.denied(caller, id, "update", err)
	}

	s.log.LogParcel(updated.ID, updated.UserID, "update", nil)
	if in.Status != nil {
		s.notifyStatus(ctx, updated, previous, caller, owner.Email)
	}
	return s.view(updated), nil
}

// Delete removes a parcel. Only the owner may delete.
func (s *ParcelService) Delete(ctx context.Context, caller models.Identity, id uint) error {
	var image string
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		parcel, err := loadOwnedParcel(ctx, r, caller, id)
		if err != nil {
			return err
		}
		image = parcel.Image

		if err := r.Parcels.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("Parcel not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return s.denied(caller, id, "delete", err)
	}

	s.log.LogParcel(id, caller.ID, "delete", nil)
	s.removeImage(ctx, id, image)
	return nil
}

// ChangeStatus lets any existing admin set the status of any parcel
func (s *ParcelService) ChangeStatus(ctx context.Context, caller models.Identity, id uint, status string) (models.ParcelView, error) {
	status = strings.TrimSpace(status)

	var (
		updated  *models.Parcel
		previous string
		owner    *models.User
	)
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if _, err := requireAdmin(ctx, r, caller); err != nil {
			return err
		}

		parcel, err := r.Parcels.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("Parcel not found")
			}
			return err
		}

		if status == "" {
			return ValidationError("parcel_status is required")
		}

		previous = parcel.Status
		parcel.Status = status
		if err := r.Parcels.Update(ctx, parcel); err != nil {
			return err
		}

		if owner, err = r.Users.Get(ctx, parcel.UserID); err != nil {
			return err
		}
		updated = parcel
		return nil
	})
	if err != nil {
		return models.ParcelView{}, s.denied(caller, id, "change_status", err)
	}

	s.log.LogParcel(updated.ID, updated.UserID, "change_status", logger.Fields{
		"admin_id":        caller.ID,
		"status":          updated.Status,
		"previous_status": previous,
	})
	s.notifyStatus(ctx, updated, previous, caller, owner.Email)
	return s.view(updated), nil
}

// AttachImage stores an image for the parcel and replaces any previous one. Only the owner may attach.
func (s *ParcelService) AttachImage(ctx context.Context, caller models.Identity, id uint, file *multipart.FileHeader) (models.ParcelView, error) {
	if _, err := loadOwnedParcel(ctx, s.store.Repositories(), caller, id); err != nil {
		return models.ParcelView{}, s.denied(caller, id, "attach_image", err)
	}
	if file == nil {
		return models.ParcelView{}, ValidationError("parcel_image is required")
	}

	stored, err := s.storage.Upload(ctx, file, ParcelImageFolder)
	if err != nil {
		if errors.Is(err, ErrUnsupportedImage) {
			return models.ParcelView{}, ValidationError("parcel_image must be an image")
		}
		return models.ParcelView{}, fmt.Errorf("failed to upload image: %w", err)
	}

	var (
		updated  *models.Parcel
		previous string
	)
	err = s.store.Transaction(ctx, func(r *repository.Repositories) error {
		parcel, err := loadOwnedParcel(ctx, r, caller, id)
		if err != nil {
			return err
		}
		previous = parcel.Image
		parcel.Image = stored
		if err := r.Parcels.Update(ctx, parcel); err != nil {
			return err
		}
		updated = parcel
		return nil
	})
	if err != nil {
		s.removeImage(ctx, id, stored)
		return models.ParcelView{}, s.denied(caller, id, "attach_image", err)
	}

	s.log.LogParcel(id, caller.ID, "attach_image", logger.Fields{"image": stored})
	s.removeImage(ctx, id, previous)
	return s.view(updated), nil
}

func loadOwnedParcel(ctx context.Context, r *repository.Repositories, caller models.Identity, id uint) (*models.Parcel, error) {
	parcel, err := r.Parcels.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("Parcel not found")
		}
		return nil, err
	}
	if !parcel.OwnedBy(caller) {
		return nil, ForbiddenError("You do not own this parcel")
	}
	return parcel, nil
}

func checkDestination(ctx context.Context, r *repository.Repositories, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := r.Destinations.Get(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ValidationError("destination %d does not exist", *id)
		}
		return err
	}
	return nil
}

// denied logs authorization refusals and wraps internal failures
func (s *ParcelService) denied(caller models.Identity, id uint, action string, err error) error {
	if IsKind(err, KindForbidden) {
		s.log.WithFields(logger.Fields{
			"identity":  caller.String(),
			"parcel_id": id,
			"action":    action,
		}).Warn("Parcel access denied")
	}
	return wrapInternal(fmt.Sprintf("failed to %s parcel", strings.ReplaceAll(action, "_", " ")), err)
}

func (s *ParcelService) notifyStatus(ctx context.Context, parcel *models.Parcel, previous string, caller models.Identity, ownerEmail string) {
	if s.notifier == nil {
		return
	}
	event := newParcelStatusEvent(parcel, previous, caller, ownerEmail)
	if err := s.notifier.NotifyParcelStatus(ctx, event); err != nil {
		s.log.WithFields(logger.Fields{"parcel_id": parcel.ID, "error": err.Error()}).Error("Failed to notify parcel status")
	}
}

func (s *ParcelService) removeImage(ctx context.Context, parcelID uint, image string) {
	if image == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, image); err != nil {
		s.log.WithFields(logger.Fields{"parcel_id": parcelID, "image": image, "error": err.Error()}).Warn("Failed to delete parcel image")
	}
}
