package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/services"
)

type DestinationInput struct {
	Name       *string `json:"name"`
	Location   *string `json:"location"`
	ArrivalDay *string `json:"arrival_day"`
}

var arrivalDayLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// parseArrivalDay accepts RFC 3339 timestamps and plain dates
func parseArrivalDay(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	var err error
	for _, layout := range arrivalDayLayouts {
		var t time.Time
		if t, err = time.Parse(layout, *value); err == nil {
			return &t, nil
		}
	}
	return nil, services.ValidationError("arrival_day must be a date or RFC 3339 timestamp")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ListDestinations(svc *services.DestinationService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		destinations, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, destinations)
	}
}

func GetDestination(svc *services.DestinationService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "Destination")
		if !ok {
			return
		}

		destination, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, destination)
	}
}

func CreateDestination(svc *services.DestinationService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input DestinationInput
		if !bindJSON(c, &input) {
			return
		}

		arrival, err := parseArrivalDay(input.ArrivalDay)
		if err != nil {
			respondError(c, log, err)
			return
		}

		destination, err := svc.Create(c.Request.Context(), services.CreateDestinationInput{
			Name:       deref(input.Name),
			Location:   deref(input.Location),
			ArrivalDay: arrival,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, destination)
	}
}

func UpdateDestination(svc *services.DestinationService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "Destination")
		if !ok {
			return
		}

		var input DestinationInput
		if !bindJSON(c, &input) {
			return
		}

		arrival, err := parseArrivalDay(input.ArrivalDay)
		if err != nil {
			respondError(c, log, err)
			return
		}

		destination, err := svc.Update(c.Request.Context(), id, services.UpdateDestinationInput{
			Name:       input.Name,
			Location:   input.Location,
			ArrivalDay: arrival,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, destination)
	}
}

func DeleteDestination(svc *services.DestinationService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "Destination")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Destination deleted"})
	}
}
