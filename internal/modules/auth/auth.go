package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/jwt"
	"github.com/storyseed/core/internal/pkg/mail"
	"github.com/storyseed/core/internal/pkg/response"
)

const tokenTTL = 7 * 24 * time.Hour

type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"` // username or email
	Password string `json:"password" binding:"required"`
}

type UpdateProfileDTO struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Timezone *string `json:"timezone"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type Service struct {
	db     *gorm.DB
	mailer *mail.Sender
	webURL string
	logger *zap.Logger
}

func NewService(db *gorm.DB, mailer *mail.Sender, webURL string, logger *zap.Logger) *Service {
	return &Service{db: db, mailer: mailer, webURL: webURL, logger: logger}
}

func (s *Service) Register(dto *RegisterDTO) (*models.UserModel, error) {
	var count int64
	s.db.Model(&models.UserModel{}).Where("username = ? OR email = ?", dto.Username, dto.Email).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("username or email already taken")
	}

	tz := dto.Timezone
	if tz == "" {
		tz = "UTC"
	} else if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("unknown timezone %q", tz)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.UserModel{
		Username: dto.Username,
		Email:    dto.Email,
		Name:     dto.Name,
		Password: string(hash),
		Timezone: tz,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	if s.mailer.Enabled() {
		go func() {
			name := user.Name
			if name == "" {
				name = user.Username
			}
			if err := s.mailer.SendWelcome(user.Email, mail.WelcomeData{UserName: name, WebURL: s.webURL}); err != nil {
				s.logger.Warn("welcome mail failed", zap.String("user_id", user.ID), zap.Error(err))
			}
		}()
	}
	return &user, nil
}

func (s *Service) Login(dto *LoginDTO, ip string) (*models.UserModel, string, error) {
	var user models.UserModel
	err := s.db.Where("username = ? OR email = ?", dto.Username, dto.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("invalid credentials")
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)) != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	token, err := jwt.Sign(user.ID, tokenTTL)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	s.db.Model(&user).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})
	return &user, token, nil
}

func (s *Service) GetByID(id string) (*models.UserModel, error) {
	var user models.UserModel
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateProfile(id string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	user, err := s.GetByID(id)
	if err != nil || user == nil {
		return user, err
	}

	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Email != nil {
		var count int64
		s.db.Model(&models.UserModel{}).Where("email = ? AND id <> ?", *dto.Email, id).Count(&count)
		if count > 0 {
			return nil, fmt.Errorf("email already taken")
		}
		updates["email"] = *dto.Email
	}
	if dto.Timezone != nil {
		if _, err := time.LoadLocation(*dto.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q", *dto.Timezone)
		}
		updates["timezone"] = *dto.Timezone
	}
	return user, s.db.Model(user).Updates(updates).Error
}

func (s *Service) ChangePassword(id string, dto *ChangePasswordDTO) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.OldPassword)) != nil {
		return fmt.Errorf("old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password", string(hash)).Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)

	a := g.Group("", authMW)
	a.GET("/me", h.me)
	a.PUT("/me", h.updateProfile)
	a.POST("/password", h.changePassword)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.svc.Register(&dto)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	token, err := jwt.Sign(user.ID, tokenTTL)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"user": user, "token": token})
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.svc.Login(&dto, c.ClientIP())
	if err != nil {
		response.Unauthorized(c)
		return
	}
	response.OK(c, gin.H{"user": user, "token": token})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.svc.GetByID(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if user == nil {
		response.Unauthorized(c)
		return
	}
	response.OK(c, user)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.svc.UpdateProfile(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	if user == nil {
		response.Unauthorized(c)
		return
	}
	response.OK(c, user)
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.ChangePassword(middleware.CurrentUserID(c), &dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.NoContent(c)
}
