package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/internal/repository"
)

const destinationsCacheKey = "destinations:all"

type CreateDestinationInput struct {
	Name       string
	Location   string
	ArrivalDay *time.Time
}

// UpdateDestinationInput carries a partial update; nil fields are left untouched
type UpdateDestinationInput struct {
	Name       *string
	Location   *string
	ArrivalDay *time.Time
}

type DestinationService struct {
	store *repository.Store
	cache Cache
	log   *logger.Logger

	// generation counts invalidations; a fill that raced one is dropped
	generation atomic.Uint64
}

func NewDestinationService(store *repository.Store, cache Cache, log *logger.Logger) *DestinationService {
	if cache == nil {
		cache = NopCache{}
	}
	return &DestinationService{store: store, cache: cache, log: log}
}

// List serves the destination list from the cache, filling it on a miss
func (s *DestinationService) List(ctx context.Context) ([]models.DestinationView, error) {
	generation := s.generation.Load()

	var views []models.DestinationView
	hit, err := s.cache.Get(ctx, destinationsCacheKey, &views)
	if err != nil {
		s.log.WithFields(logger.Fields{"key": destinationsCacheKey, "error": err.Error()}).Warn("Destination cache read failed")
	}
	if hit && err == nil {
		return views, nil
	}

	destinations, err := s.store.Repositories().Destinations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}

	views = make([]models.DestinationView, 0, len(destinations))
	for i := range destinations {
		views = append(views, destinations[i].View())
	}

	s.fill(ctx, generation, views)
	return views, nil
}

// fill caches views read at generation unless a mutation invalidated the cache meanwhile
func (s *DestinationService) fill(ctx context.Context, generation uint64, views []models.DestinationView) {
	if s.generation.Load() != generation {
		return
	}
	if err := s.cache.Set(ctx, destinationsCacheKey, views); err != nil {
		s.log.WithFields(logger.Fields{"key": destinationsCacheKey, "error": err.Error()}).Warn("Destination cache write failed")
		return
	}
	// an invalidation that landed during Set may have run its Delete first
	if s.generation.Load() != generation {
		s.invalidate(ctx)
	}
}

func (s *DestinationService) Get(ctx context.Context, id uint) (models.DestinationView, error) {
	destination, err := s.store.Repositories().Destinations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.DestinationView{}, NotFoundError("Destination not found")
		}
		return models.DestinationView{}, fmt.Errorf("failed to get destination: %w", err)
	}
	return destination.View(), nil
}

func (s *DestinationService) Create(ctx context.Context, in CreateDestinationInput) (models.DestinationView, error) {
	destination := &models.Destination{
		Name:     strings.TrimSpace(in.Name),
		Location: strings.TrimSpace(in.Location),
	}
	if destination.Name == "" || destination.Location == "" {
		return models.DestinationView{}, ValidationError("name and location are required")
	}

	destination.ArrivalDay = time.Now().UTC()
	if in.ArrivalDay != nil {
		destination.ArrivalDay = in.ArrivalDay.UTC()
	}

	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if err := checkLocationFree(ctx, r, destination.Location, 0); err != nil {
			return err
		}
		return insertOrDuplicate(r.Destinations.Insert(ctx, destination))
	})
	if err != nil {
		return models.DestinationView{}, wrapInternal("failed to create destination", err)
	}

	s.invalidate(ctx)
	return destination.View(), nil
}

func (s *DestinationService) Update(ctx context.Context, id uint, in UpdateDestinationInput) (models.DestinationView, error) {
	var updated *models.Destination
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		destination, err := r.Destinations.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("Destination not found")
			}
			return err
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ValidationError("name cannot be empty")
			}
			destination.Name = name
		}
		if in.Location != nil {
			location := strings.TrimSpace(*in.Location)
			if location == "" {
				return ValidationError("location cannot be empty")
			}
			if location != destination.Location {
				if err := checkLocationFree(ctx, r, location, destination.ID); err != nil {
					return err
				}
				destination.Location = location
			}
		}
		if in.ArrivalDay != nil {
			destination.ArrivalDay = in.ArrivalDay.UTC()
		}

		if err := insertOrDuplicate(r.Destinations.Update(ctx, destination)); err != nil {
			return err
		}
		updated = destination
		return nil
	})
	if err != nil {
		return models.DestinationView{}, wrapInternal("failed to update destination", err)
	}

	s.invalidate(ctx)
	return updated.View(), nil
}

// Delete removes a destination; parcels that referenced it keep existing without one
func (s *DestinationService) Delete(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if _, err := r.Destinations.GetForUpdate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("Destination not found")
			}
			return err
		}
		if err := r.Parcels.ClearDestination(ctx, id); err != nil {
			return err
		}
		if err := r.Destinations.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("Destination not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return wrapInternal("failed to delete destination", err)
	}

	s.invalidate(ctx)
	return nil
}

func (s *DestinationService) invalidate(ctx context.Context) {
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, destinationsCacheKey); err != nil {
		s.log.WithFields(logger.Fields{"key": destinationsCacheKey, "error": err.Error()}).Warn("Destination cache invalidation failed")
	}
}

func checkLocationFree(ctx context.Context, r *repository.Repositories, location string, self uint) error {
	existing, err := r.Destinations.GetByLocation(ctx, location)
	if err == nil && existing.ID != self {
		return DuplicateError("Location already exists")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func insertOrDuplicate(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return DuplicateError("Location already exists")
	}
	return err
}
