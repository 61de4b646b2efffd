package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Hassan-Maher/Quizify/internal/config"
	"github.com/Hassan-Maher/Quizify/internal/mailer"
	"github.com/Hassan-Maher/Quizify/internal/models"
	"github.com/Hassan-Maher/Quizify/internal/otp"
	"github.com/Hassan-Maher/Quizify/internal/response"
	"github.com/Hassan-Maher/Quizify/internal/utils"
)

type AuthHandler struct {
	DB    *gorm.DB
	Cfg   config.Config
	Mail  mailer.Sender
	Codes *otp.Store
	Log   *zap.SugaredLogger
}

func NewAuthHandler(db *gorm.DB, cfg config.Config, mail mailer.Sender, codes *otp.Store, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg, Mail: mail, Codes: codes, Log: log}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required,min=10,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// userByEmail resolves the address or reports the Laravel-style "exists"
// validation failure the API contract expects for unknown emails.
func (h *AuthHandler) userByEmail(c *gin.Context, email string) (models.User, bool) {
	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		validationFailed(c, []string{"the selected email is invalid"})
		return models.User{}, false
	}
	return user, true
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	email := normalizeEmail(req.Email)
	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		validationFailed(c, []string{"the email has already been taken"})
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "password hashing failed", nil)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		response.Send(c, 505, "account failed to be created", gin.H{"is_created": false})
		return
	}

	record, err := h.Codes.Issue(user.ID)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "user created but failed to issue code", gin.H{
			"user":  user,
			"error": err.Error(),
		})
		return
	}

	if err := h.Mail.SendRegistrationOTP(user.Email, record.Code); err != nil {
		h.Log.Warnw("otp email delivery failed", "email", user.Email, "error", err)
		response.Send(c, http.StatusInternalServerError, "user created but failed to send email", gin.H{
			"user":  user,
			"error": err.Error(),
		})
		return
	}

	response.Send(c, http.StatusCreated, "register successful, please verify your email using the OTP code we sent", gin.H{
		"user": user,
	})
}

func (h *AuthHandler) VerifyRegisterOtp(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	user, ok := h.userByEmail(c, req.Email)
	if !ok {
		return
	}

	// The verified flag and the code deletion must land together.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.Codes.Consume(tx, user.ID, req.Code); err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("is_verified", true).Error
	})
	if err != nil {
		h.sendOTPError(c, err)
		return
	}

	token, err := utils.GenerateAccessToken(user.ID.String(), user.Email, h.Cfg.JwtSecret, h.Cfg.JwtAccessMinutes)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "token generation failed", nil)
		return
	}

	user.IsVerified = true
	response.Send(c, http.StatusOK, "account has been verified successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	user, ok := h.userByEmail(c, req.Email)
	if !ok {
		return
	}

	record, err := h.Codes.Issue(user.ID)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "failed to issue code", nil)
		return
	}

	if err := h.Mail.SendRegistrationOTP(user.Email, record.Code); err != nil {
		h.Log.Warnw("otp email delivery failed", "email", user.Email, "error", err)
		response.Send(c, http.StatusInternalServerError, "code issued but failed to send email", gin.H{
			"user":  user,
			"error": err.Error(),
		})
		return
	}

	response.Send(c, http.StatusOK, "code resent successfully", gin.H{
		"user":     user,
		"new_code": record.Code,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	// Unknown email and wrong password collapse into the same signal.
	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		response.Send(c, http.StatusForbidden, "password is not valid", gin.H{"is_valid": false})
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		response.Send(c, http.StatusForbidden, "password is not valid", gin.H{"is_valid": false})
		return
	}

	if !user.IsVerified {
		record, err := h.Codes.Issue(user.ID)
		if err != nil {
			response.Send(c, http.StatusInternalServerError, "failed to issue code", nil)
			return
		}
		response.Send(c, http.StatusForbidden, "you must verify your account before logging in", gin.H{
			"is_verified": false,
			"code":        record.Code,
		})
		return
	}

	token, err := utils.GenerateAccessToken(user.ID.String(), user.Email, h.Cfg.JwtSecret, h.Cfg.JwtAccessMinutes)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "token generation failed", nil)
		return
	}

	response.Send(c, http.StatusOK, "login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) ForgetPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	user, ok := h.userByEmail(c, req.Email)
	if !ok {
		return
	}

	record, err := h.Codes.Issue(user.ID)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "failed to issue code", nil)
		return
	}

	if err := h.Mail.SendPasswordResetOTP(user.Email, record.Code); err != nil {
		h.Log.Warnw("reset email delivery failed", "email", user.Email, "error", err)
		response.Send(c, http.StatusInternalServerError, "code issued but failed to send email", gin.H{
			"user":  user,
			"error": err.Error(),
		})
		return
	}

	response.Send(c, http.StatusOK, "code has been sent successfully", gin.H{
		"user": user,
		"code": record.Code,
	})
}

func (h *AuthHandler) VerifyPasswordOtp(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	user, ok := h.userByEmail(c, req.Email)
	if !ok {
		return
	}

	// Deleting the code is the unlock signal ResetPassword checks for.
	if err := h.Codes.Consume(nil, user.ID, req.Code); err != nil {
		h.sendOTPError(c, err)
		return
	}

	response.Send(c, http.StatusOK, "code verified successfully, you can reset your password", gin.H{
		"can_reset": true,
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	user, ok := h.userByEmail(c, req.Email)
	if !ok {
		return
	}

	active, err := h.Codes.Active(user.ID)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "could not check code state", nil)
		return
	}
	if active {
		response.Send(c, http.StatusForbidden, "you have an active code, verify it before resetting the password", nil)
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "password hashing failed", nil)
		return
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", passwordHash).Error; err != nil {
		response.Send(c, http.StatusInternalServerError, "password reset failed", nil)
		return
	}

	response.Send(c, http.StatusCreated, "password reset successfully", nil)
}

func (h *AuthHandler) sendOTPError(c *gin.Context, err error) {
	switch err {
	case otp.ErrNoActiveCode:
		response.Send(c, http.StatusNotFound, "user has no active code", gin.H{"is_found": false})
	case otp.ErrInvalidCode:
		response.Send(c, http.StatusNotFound, "code is not valid", gin.H{"is_valid": false})
	case otp.ErrExpired:
		response.Send(c, http.StatusForbidden, "code is expired, please resend code", gin.H{"is_expired": true})
	default:
		response.Send(c, http.StatusInternalServerError, "verification failed", nil)
	}
}
