package models

import "time"

type Destination struct {
	ID         uint      `gorm:"primaryKey"`
	Name       string    `gorm:"column:name;size:100;not null;default:''"`
	Location   string    `gorm:"column:location;size:100;uniqueIndex;not null"`
	ArrivalDay time.Time `gorm:"column:arrival_day;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Destination) TableName() string {
	return "destinations"
}

type DestinationView struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	ArrivalDay time.Time `json:"arrival_day"`
}

func (d *Destination) View() DestinationView {
	return DestinationView{
		ID:         d.ID,
		Name:       d.Name,
		Location:   d.Location,
		ArrivalDay: d.ArrivalDay,
	}
}
