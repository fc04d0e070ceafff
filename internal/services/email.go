package services

import (
	"context"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/pkg/utils"
)

// EmailNotifier mails the parcel owner in the background
type EmailNotifier struct {
	mailer *utils.Mailer
	log    *logger.Logger
}

func NewEmailNotifier(mailer *utils.Mailer, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, log: log}
}

func (n *EmailNotifier) NotifyParcelStatus(_ context.Context, event ParcelStatusEvent) error {
	if event.OwnerEmail == "" {
		return nil
	}

	go func() {
		err := n.mailer.SendParcelStatusEmail(event.OwnerEmail, event.Item, event.ParcelID, event.PreviousStatus, event.Status)
		if err != nil {
			n.log.WithFields(logger.Fields{"parcel_id": event.ParcelID, "error": err.Error()}).Error("Failed to send parcel status email")
			return
		}
		n.log.WithFields(logger.Fields{"parcel_id": event.ParcelID}).Debug("Parcel status email sent")
	}()
	return nil
}
