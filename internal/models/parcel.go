package models

import "time"

const ParcelStatusPending = "Pending"

type Parcel struct {
	ID            uint    `gorm:"primaryKey"`
	Item          string  `gorm:"column:parcel_item;size:100;not null"`
	Description   string  `gorm:"column:parcel_description;size:255;not null;default:''"`
	Weight        float64 `gorm:"column:parcel_weight;not null"`
	Cost          float64 `gorm:"column:parcel_cost;not null;default:0"`
	Status        string  `gorm:"column:parcel_status;size:50;not null;default:'Pending'"`
	Image         string  `gorm:"column:parcel_image;size:512;not null;default:''"`
	UserID        uint    `gorm:"column:user_id;not null;index"`
	DestinationID *uint   `gorm:"column:destination_id;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	User        User         `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Destination *Destination `gorm:"foreignKey:DestinationID;constraint:OnDelete:SET NULL"`
}

func (Parcel) TableName() string {
	return "parcels"
}

// OwnedBy reports whether the identity is the user recorded on the parcel
func (p *Parcel) OwnedBy(identity Identity) bool {
	return identity.IsUserID(p.UserID)
}

// ParcelView is the full parcel representation returned to authenticated callers
type ParcelView struct {
	ID            uint    `json:"id"`
	Item          string  `json:"parcel_item"`
	Description   string  `json:"parcel_description"`
	Weight        float64 `json:"parcel_weight"`
	Cost          float64 `json:"parcel_cost"`
	Status        string  `json:"parcel_status"`
	Image         string  `json:"parcel_image,omitempty"`
	UserID        uint    `json:"user_id"`
	DestinationID *uint   `json:"destination_id"`
}

func (p *Parcel) View() ParcelView {
	return ParcelView{
		ID:            p.ID,
		Item:          p.Item,
		Description:   p.Description,
		Weight:        p.Weight,
		Cost:          p.Cost,
		Status:        p.Status,
		Image:         p.Image,
		UserID:        p.UserID,
		DestinationID: p.DestinationID,
	}
}
