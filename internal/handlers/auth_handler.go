package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holidaysplanners/tour-booking-backend/internal/database"
	"github.com/holidaysplanners/tour-booking-backend/internal/middleware"
	"github.com/holidaysplanners/tour-booking-backend/internal/models"
	"github.com/holidaysplanners/tour-booking-backend/pkg/jwt"
	"github.com/holidaysplanners/tour-booking-backend/pkg/mailer"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// pgUniqueViolation is the Postgres error code for unique-constraint breaches
const pgUniqueViolation = "23505"

// AuthHandler handles account registration, login and password recovery
type AuthHandler struct {
	userRepo   *database.UserRepository
	jwtService *jwt.Service
	mailer     mailer.Mailer
	logger     *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo *database.UserRepository, jwtService *jwt.Service, authMailer mailer.Mailer, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		jwtService: jwtService,
		mailer:     authMailer,
		logger:     logger,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// Register creates a new account. Every account starts with the standard
// role; admins are promoted out of band.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
	}

	if err := h.userRepo.Create(user); err != nil {
		if isUniqueViolation(err) {
			errorResponse(c, http.StatusConflict, "An account with this email already exists")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user":    user,
	})
}

// Login verifies the credentials and issues an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch account")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errorResponse(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Invalid account identifier")
		return
	}

	token, err := h.jwtService.GenerateAccessToken(userID, user.Email, user.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to sign access token")
		errorResponse(c, http.StatusInternalServerError, "Failed to issue access token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Logged in successfully",
		"access_token": token,
		"user":         user,
	})
}

// ChangePassword replaces the caller's password after verifying the current one
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		errorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByID(userCtx.UserID.String())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "Account not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch account")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		errorResponse(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	if err := h.userRepo.UpdatePassword(user.ID, string(hash)); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to update password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

// ForgotPassword mails a single-use reset token to the account's address.
// The response never reveals whether the account exists; the send runs on a
// detached goroutine like the booking notification.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	accepted := func() {
		c.JSON(http.StatusOK, gin.H{
			"message": "If an account exists for this email, a reset mail has been sent",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.WithError(err).Error("Failed to fetch account for password reset")
		}
		accepted()
		return
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		h.logger.WithField("user_id", user.ID).Error("Invalid account identifier on password reset")
		accepted()
		return
	}

	token, err := h.jwtService.GeneratePasswordResetToken(userID, user.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to sign password-reset token")
		accepted()
		return
	}

	go func(email, name, token string) {
		if err := h.mailer.SendPasswordReset(email, name, token); err != nil {
			h.logger.WithError(err).WithField("email", email).
				Warn("Failed to send password-reset mail")
		}
	}(user.Email, user.DisplayName(), token)

	accepted()
}

// ResetPassword sets a new password for the account named by a valid reset
// token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	claims, err := h.jwtService.ValidatePasswordResetToken(c.Param("token"))
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, "Invalid or expired reset token")
		return
	}

	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	if err := h.userRepo.UpdatePassword(claims.UserID.String(), string(hash)); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "Account not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to update password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully",
	})
}
