package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/internal/repository"
)

const parcelSheet = "Parcels"

var parcelColumns = []string{
	"ID", "Item", "Description", "Weight", "Cost", "Status", "Owner ID", "Owner Email", "Destination", "Created At",
}

// ReportService builds spreadsheet exports for admins
type ReportService struct {
	store *repository.Store
	log   *logger.Logger
}

func NewReportService(store *repository.Store, log *logger.Logger) *ReportService {
	return &ReportService{store: store, log: log}
}

// ExportParcels writes every parcel to an xlsx workbook
func (s *ReportService) ExportParcels(ctx context.Context, caller models.Identity) (*bytes.Buffer, error) {
	var (
		parcels      []models.Parcel
		owners       = map[uint]string{}
		destinations = map[uint]string{}
	)
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if _, err := requireAdmin(ctx, r, caller); err != nil {
			return err
		}

		var err error
		if parcels, err = r.Parcels.List(ctx); err != nil {
			return err
		}

		users, err := r.Users.List(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			owners[u.ID] = u.Email
		}

		dests, err := r.Destinations.List(ctx)
		if err != nil {
			return err
		}
		for _, d := range dests {
			destinations[d.ID] = d.Location
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal("failed to load parcels for export", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", parcelSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(parcelSheet, "A1", &parcelColumns); err != nil {
		return nil, err
	}

	for i, p := range parcels {
		destination := ""
		if p.DestinationID != nil {
			destination = destinations[*p.DestinationID]
		}
		row := []interface{}{
			p.ID, p.Item, p.Description, p.Weight, p.Cost, p.Status,
			p.UserID, owners[p.UserID], destination, p.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(parcelSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.log.WithFields(logger.Fields{"admin_id": caller.ID, "rows": len(parcels)}).Info("Parcels exported")
	return buf, nil
}
