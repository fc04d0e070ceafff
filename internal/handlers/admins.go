package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/services"
)

type RegisterAdminInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func ListAdmins(svc *services.AdminService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		admins, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, admins)
	}
}

func GetAdmin(svc *services.AdminService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "Admin")
		if !ok {
			return
		}

		admin, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, admin)
	}
}

func RegisterAdmin(svc *services.AdminService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterAdminInput
		if !bindJSON(c, &input) {
			return
		}

		admin, err := svc.Register(c.Request.Context(), services.RegisterAdminInput{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Password:  input.Password,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, admin)
	}
}

func LoginAdmin(svc *services.AdminService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token, admin, err := svc.Login(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Login successful",
			"access_token": token,
			"token":        token,
			"admin":         admin,
		})
	}
}
