package models

import "time"

type Admin struct {
	ID        uint         `gorm:"primaryKey"`
	FirstName string       `gorm:"column:first_name;size:50;not null"`
	LastName  string       `gorm:"column:last_name;size:50;not null"`
	Email     string       `gorm:"column:email;size:120;uniqueIndex;not null"`
	Password  PasswordHash `gorm:"column:password_hash;size:120;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Admin) TableName() string {
	return "admins"
}

type AdminView struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (a *Admin) View() AdminView {
	return AdminView{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
	}
}
