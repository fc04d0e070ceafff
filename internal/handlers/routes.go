package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/middleware"
	"github.com/chachabrian/sendit-backend/internal/services"
	"github.com/chachabrian/sendit-backend/pkg/utils"
)

// Deps is everything the routes need
type Deps struct {
	DB           *gorm.DB
	Tokens       *utils.TokenService
	Users        *services.UserService
	Admins       *services.AdminService
	Parcels      *services.ParcelService
	Destinations *services.DestinationService
	Reports      *services.ReportService
	Hub          *services.Hub
	Log          *logger.Logger

	// UploadDir is served under /uploads when images are stored locally
	UploadDir string
}

func RegisterRoutes(r *gin.Engine, d *Deps) {
	auth := middleware.AuthMiddleware(d.Tokens, d.Log)
	optionalAuth := middleware.OptionalAuth(d.Tokens, d.Log)

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	r.GET("/", Welcome())
	r.GET("/health", Health(d.DB, d.Log))

	if d.Hub != nil {
		r.GET("/ws", auth, WebSocketHandler(d.Hub))
	}

	// the open user routes never read a token, so a stale one cannot fail them
	var selfAccess []gin.HandlerFunc
	if d.Users != nil && d.Users.SelfAccessEnforced() {
		selfAccess = append(selfAccess, optionalAuth)
	}

	users := r.Group("/users")
	{
		users.GET("", ListUsers(d.Users, d.Log))
		users.POST("", CreateUser(d.Users, d.Log))
		users.POST("/login", LoginUser(d.Users, d.Log))
		users.GET("/:id", GetUser(d.Users, d.Log))
		users.PATCH("/:id", append(selfAccess, UpdateUser(d.Users, d.Log))...)
		users.DELETE("/:id", append(selfAccess, DeleteUser(d.Users, d.Log))...)
	}

	admins := r.Group("/admins")
	{
		admins.GET("", ListAdmins(d.Admins, d.Log))
		admins.GET("/:id", GetAdmin(d.Admins, d.Log))
	}

	admin := r.Group("/admin")
	{
		admin.POST("/register", RegisterAdmin(d.Admins, d.Log))
		admin.POST("/login", LoginAdmin(d.Admins, d.Log))
		admin.PUT("/parcels/:id/status", auth, ChangeParcelStatus(d.Parcels, d.Log))
		admin.GET("/parcels/export", auth, ExportParcels(d.Reports, d.Log))
	}

	parcels := r.Group("/parcels", auth)
	{
		parcels.GET("", ListParcels(d.Parcels, d.Log))
		parcels.POST("", CreateParcel(d.Parcels, d.Log))
		parcels.GET("/:id", GetParcel(d.Parcels, d.Log))
		parcels.PUT("/:id", UpdateParcel(d.Parcels, d.Log))
		parcels.DELETE("/:id", DeleteParcel(d.Parcels, d.Log))
		parcels.POST("/:id/image", UploadParcelImage(d.Parcels, d.Log))
	}

	destinations := r.Group("/destinations")
	{
		destinations.GET("", ListDestinations(d.Destinations, d.Log))
		destinations.GET("/:id", GetDestination(d.Destinations, d.Log))
		destinations.POST("", auth, CreateDestination(d.Destinations, d.Log))
		destinations.PUT("/:id", auth, UpdateDestination(d.Destinations, d.Log))
		destinations.DELETE("/:id", auth, DeleteDestination(d.Destinations, d.Log))
	}
}
