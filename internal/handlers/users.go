package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/middleware"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/internal/services"
)

type CreateUserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UpdateUserInput struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func ListUsers(svc *services.UserService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func GetUser(svc *services.UserService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "User")
		if !ok {
			return
		}

		user, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func CreateUser(svc *services.UserService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateUserInput
		if !bindJSON(c, &input) {
			return
		}

		user, err := svc.Create(c.Request.Context(), services.CreateUserInput{
			Email:     input.Email,
			Password:  input.Password,
			FirstName: input.FirstName,
			LastName:  input.LastName,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func LoginUser(svc *services.UserService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		token, user, err := svc.Login(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Login successful",
			"access_token": token,
			"token":        token,
			"user":         user,
		})
	}
}

// callerIfAny returns the optional identity set by OptionalAuth
func callerIfAny(c *gin.Context) *models.Identity {
	if identity, ok := middleware.GetIdentity(c); ok {
		return &identity
	}
	return nil
}

func UpdateUser(svc *services.UserService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "User")
		if !ok {
			return
		}

		var input UpdateUserInput
		if !bindJSON(c, &input) {
			return
		}

		user, err := svc.Update(c.Request.Context(), callerIfAny(c), id, services.UpdateUserInput{
			Email:     input.Email,
			Password:  input.Password,
			FirstName: input.FirstName,
			LastName:  input.LastName,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func DeleteUser(svc *services.UserService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "User")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), callerIfAny(c), id); err != nil {
			respondError(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
