package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/sendit-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	// GetForUpdate locks the row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

type AdminRepository interface {
	Get(ctx context.Context, id uint) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	Insert(ctx context.Context, admin *models.Admin) error
}

type ParcelRepository interface {
	Get(ctx context.Context, id uint) (*models.Parcel, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Parcel, error)
	List(ctx context.Context) ([]models.Parcel, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Parcel, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Insert(ctx context.Context, parcel *models.Parcel) error
	Update(ctx context.Context, parcel *models.Parcel) error
	Delete(ctx context.Context, id uint) error
	// ClearDestination detaches every parcel from the destination
	ClearDestination(ctx context.Context, destinationID uint) error
}

type DestinationRepository interface {
	Get(ctx context.Context, id uint) (*models.Destination, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Destination, error)
	GetByLocation(ctx context.Context, location string) (*models.Destination, error)
	List(ctx context.Context) ([]models.Destination, error)
	Insert(ctx context.Context, destination *models.Destination) error
	Update(ctx context.Context, destination *models.Destination) error
	Delete(ctx context.Context, id uint) error
}

// Repositories groups the per-entity repositories bound to one connection or transaction
type Repositories struct {
	Users        UserRepository
	Admins       AdminRepository
	Parcels      ParcelRepository
	Destinations DestinationRepository
}

func newRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:        &userRepository{db: db},
		Admins:       &adminRepository{db: db},
		Parcels:      &parcelRepository{db: db},
		Destinations: &destinationRepository{db: db},
	}
}

// Store hands out repositories, either directly or inside a transaction
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Repositories returns repositories outside of any transaction, for plain reads
func (s *Store) Repositories() *Repositories {
	return newRepositories(s.db)
}

// Transaction runs fn in one transaction, committed only when fn returns nil
func (s *Store) Transaction(ctx context.Context, fn func(r *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}

// isUniqueViolation catches drivers whose errors are not translated by gorm
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// forUpdate adds SELECT ... FOR UPDATE; dialects without row locks (sqlite) drop the clause
func forUpdate(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// deleteByID removes a row and reports ErrNotFound when nothing matched
func deleteByID(ctx context.Context, db *gorm.DB, model interface{}, id uint) error {
	result := db.WithContext(ctx).Delete(model, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := forUpdate(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, translate(err)
}

func (r *userRepository) Insert(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error)
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.User{}, id)
}

type adminRepository struct {
	db *gorm.DB
}

func (r *adminRepository) Get(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *adminRepository) List(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	err := r.db.WithContext(ctx).Order("id").Find(&admins).Error
	return admins, translate(err)
}

func (r *adminRepository) Insert(ctx context.Context, admin *models.Admin) error {
	return translate(r.db.WithContext(ctx).Create(admin).Error)
}

type parcelRepository struct {
	db *gorm.DB
}

func (r *parcelRepository) Get(ctx context.Context, id uint) (*models.Parcel, error) {
	var parcel models.Parcel
	if err := r.db.WithContext(ctx).First(&parcel, id).Error; err != nil {
		return nil, translate(err)
	}
	return &parcel, nil
}

func (r *parcelRepository) GetForUpdate(ctx context.Context, id uint) (*models.Parcel, error) {
	var parcel models.Parcel
	if err := forUpdate(ctx, r.db).First(&parcel, id).Error; err != nil {
		return nil, translate(err)
	}
	return &parcel, nil
}

func (r *parcelRepository) List(ctx context.Context) ([]models.Parcel, error) {
	var parcels []models.Parcel
	err := r.db.WithContext(ctx).Order("id").Find(&parcels).Error
	return parcels, translate(err)
}

func (r *parcelRepository) ListByUser(ctx context.Context, userID uint) ([]models.Parcel, error) {
	var parcels []models.Parcel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&parcels).Error
	return parcels, translate(err)
}

func (r *parcelRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Parcel{}).Where("user_id = ?", userID).Count(&count).Error
	return count, translate(err)
}

func (r *parcelRepository) Insert(ctx context.Context, parcel *models.Parcel) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(parcel).Error)
}

func (r *parcelRepository) Update(ctx context.Context, parcel *models.Parcel) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(parcel).Error)
}

func (r *parcelRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Parcel{}, id)
}

func (r *parcelRepository) ClearDestination(ctx context.Context, destinationID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Parcel{}).
		Where("destination_id = ?", destinationID).
		Update("destination_id", nil).Error
	return translate(err)
}

type destinationRepository struct {
	db *gorm.DB
}

func (r *destinationRepository) Get(ctx context.Context, id uint) (*models.Destination, error) {
	var destination models.Destination
	if err := r.db.WithContext(ctx).First(&destination, id).Error; err != nil {
		return nil, translate(err)
	}
	return &destination, nil
}

func (r *destinationRepository) GetForUpdate(ctx context.Context, id uint) (*models.Destination, error) {
	var destination models.Destination
	if err := forUpdate(ctx, r.db).First(&destination, id).Error; err != nil {
		return nil, translate(err)
	}
	return &destination, nil
}

func (r *destinationRepository) GetByLocation(ctx context.Context, location string) (*models.Destination, error) {
	var destination models.Destination
	if err := r.db.WithContext(ctx).Where("location = ?", location).First(&destination).Error; err != nil {
		return nil, translate(err)
	}
	return &destination, nil
}

func (r *destinationRepository) List(ctx context.Context) ([]models.Destination, error) {
	var destinations []models.Destination
	err := r.db.WithContext(ctx).Order("id").Find(&destinations).Error
	return destinations, translate(err)
}

func (r *destinationRepository) Insert(ctx context.Context, destination *models.Destination) error {
	return translate(r.db.WithContext(ctx).Create(destination).Error)
}

func (r *destinationRepository) Update(ctx context.Context, destination *models.Destination) error {
	return translate(r.db.WithContext(ctx).Save(destination).Error)
}

func (r *destinationRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Destination{}, id)
}
