package models

import "time"

type User struct {
	ID        uint         `gorm:"primaryKey"`
	FirstName string       `gorm:"column:first_name;size:255;not null;default:''"`
	LastName  string       `gorm:"column:last_name;size:255;not null;default:''"`
	Email     string       `gorm:"column:email;size:255;uniqueIndex;not null"`
	Password  PasswordHash `gorm:"column:password_hash;size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Parcels []Parcel `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// UserView is the public representation of a user
type UserView struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
