package services

import (
	"context"
	"time"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
)

const (
	ParcelStatusChannel   = "parcel:status:updates"
	ParcelStatusEventType = "parcel_status_changed"
)

// ParcelStatusEvent describes a committed change of a parcel's status
type ParcelStatusEvent struct {
	Type           string `json:"type"`
	ParcelID       uint   `json:"parcel_id"`
	UserID         uint   `json:"user_id"`
	Item           string `json:"parcel_item"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
	ChangedBy      string `json:"changed_by"`
	Timestamp      int64  `json:"timestamp"`

	// OwnerEmail is used for delivery only and never published
	OwnerEmail string `json:"-"`
}

func newParcelStatusEvent(parcel *models.Parcel, previous string, changedBy models.Identity, ownerEmail string) ParcelStatusEvent {
	return ParcelStatusEvent{
		Type:           ParcelStatusEventType,
		ParcelID:       parcel.ID,
		UserID:         parcel.UserID,
		Item:           parcel.Item,
		Status:         parcel.Status,
		PreviousStatus: previous,
		ChangedBy:      changedBy.String(),
		Timestamp:      time.Now().Unix(),
		OwnerEmail:     ownerEmail,
	}
}

type Notifier interface {
	NotifyParcelStatus(ctx context.Context, event ParcelStatusEvent) error
}

// MultiNotifier fans an event out to every configured channel. Failures are logged, not returned.
type MultiNotifier struct {
	notifiers []Notifier
	log       *logger.Logger
}

func NewMultiNotifier(log *logger.Logger, notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{log: log}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *MultiNotifier) NotifyParcelStatus(ctx context.Context, event ParcelStatusEvent) error {
	for _, n := range m.notifiers {
		if err := n.NotifyParcelStatus(ctx, event); err != nil {
			m.log.WithFields(logger.Fields{
				"parcel_id": event.ParcelID,
				"notifier":  notifierName(n),
				"error":     err.Error(),
			}).Error("Failed to deliver parcel status notification")
		}
	}
	return nil
}

func notifierName(n Notifier) string {
	switch n.(type) {
	case *RedisPublisher:
		return "redis"
	case *Hub:
		return "websocket"
	case *EmailNotifier:
		return "email"
	default:
		return "other"
	}
}
