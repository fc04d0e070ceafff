package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/middleware"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateParcelInput has no owner field; the owner always comes from the token
type CreateParcelInput struct {
	Item          string  `json:"parcel_item"`
	Description   string  `json:"parcel_description"`
	Weight        float64 `json:"parcel_weight"`
	Cost          float64 `json:"parcel_cost"`
	DestinationID *uint   `json:"destination_id"`
}

// optionalUint tells an absent field apart from an explicit null
type optionalUint struct {
	Set   bool
	Value *uint
}

func (o *optionalUint) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type UpdateParcelInput struct {
	Item          *string      `json:"parcel_item"`
	Description   *string      `json:"parcel_description"`
	Weight        *float64     `json:"parcel_weight"`
	Cost          *float64     `json:"parcel_cost"`
	DestinationID optionalUint `json:"destination_id"`
	Status        *string      `json:"parcel_status"`
}

type ChangeStatusInput struct {
	Status string `json:"parcel_status"`
}

// mustIdentity is used behind AuthMiddleware, which always sets the identity
func mustIdentity(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
	}
	return identity, ok
}

func CreateParcel(svc *services.ParcelService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustIdentity(c)
		if !ok {
			return
		}

		var input CreateParcelInput
		if !bindJSON(c, &input) {
			return
		}

		parcel, err := svc.Create(c.Request.Context(), caller, services.CreateParcelInput{
			Item:          input.Item,
			Weight:        input.Weight,
			Description:   input.Description,
			Cost:          input.Cost,
			DestinationID: input.DestinationID,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, parcel)
	}
}

func ListParcels(svc *services.ParcelService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustIdentity(c)
		if !ok {
			return
		}

		parcels, err := svc.List(c.Request.Context(), caller)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, parcels)
	}
}

func GetParcel(svc *services.ParcelService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "Parcel")
		if !ok {
			return
		}

		parcel, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, parcel)
	}
}

func UpdateParcel(svc *services.ParcelService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustIdentity(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "Parcel")
		if !ok {
			return
		}

		var input UpdateParcelInput
		if !bindJSON(c, &input) {
			return
		}

		parcel, err := svc.Update(c.Request.Context(), caller, id, services.UpdateParcelInput{
			Item:              input.Item,
			Description:       input.Description,
			Weight:            input.Weight,
			Cost:              input.Cost,
			DestinationID:     input.DestinationID.Value,
			DetachDestination: input.DestinationID.Set && input.DestinationID.Value == nil,
			Status:            input.Status,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, parcel)
	}
}

func DeleteParcel(svc *services.ParcelService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustIdentity(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "Parcel")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), caller, id); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Parcel deleted"})
	}
}

func UploadParcelImage(svc *services.ParcelService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustIdentity(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "Parcel")
		if !ok {
			return
		}

		// a missing file is reported by the service after the ownership check
		file, _ := c.FormFile("parcel_image")

		parcel, err := svc.AttachImage(c.Request.Context(), caller, id, file)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, parcel)
	}
}

func ChangeParcelStatus(svc *services.ParcelService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustIdentity(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "Parcel")
		if !ok {
			return
		}

		// an unreadable body leaves the status empty, which the service rejects after its admin and parcel checks
		var input ChangeStatusInput
		_ = c.ShouldBindJSON(&input)

		parcel, err := svc.ChangeStatus(c.Request.Context(), caller, id, input.Status)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, parcel)
	}
}

func ExportParcels(svc *services.ReportService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustIdentity(c)
		if !ok {
			return
		}

		buf, err := svc.ExportParcels(c.Request.Context(), caller)
		if err != nil {
			respondError(c, log, err)
			return
		}

		filename := fmt.Sprintf("parcels-%s.xlsx", time.Now().UTC().Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
