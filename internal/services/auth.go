package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/internal/utils"
	"github.com/huangang/reportportal/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUserDisabled        = errors.New("user is disabled")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{
		db:        db,
		jwtConfig: jwtCfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	AccessToken     string       `json:"token"`
	AccessExpireAt  time.Time    `json:"expire_at"`
	RefreshToken    string       `json:"refresh_token"`
	RefreshExpireAt time.Time    `json:"refresh_expire_at"`
	User            *models.User `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email"`
	Nickname string `json:"nickname" binding:"omitempty,max=100"`
	Role     string `json:"role" binding:"required,oneof=admin operator viewer"`
	TenantID *uint  `json:"tenant_id"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// Login authenticates a local user and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueTokens(s.db.WithContext(ctx), &user, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		logger.Warnf("[Auth] Failed to record last login for %s: %v", user.Username, err)
	}
	user.LastLogin = &now
	result.User = &user
	return result, nil
}

func (s *AuthService) issueTokens(tx *gorm.DB, user *models.User, clientIP, userAgent string) (*LoginResult, error) {
	accessHours := s.jwtConfig.ExpireHour
	if accessHours <= 0 {
		accessHours = 24
	}
	refreshHours := s.jwtConfig.RefreshExpireHour
	if refreshHours <= 0 {
		refreshHours = 720
	}

	token, err := utils.GenerateToken(user.ID, user.TenantIDValue(), user.Username, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := models.RefreshToken{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		TokenHash:   refreshHash,
		ExpiresAt:   now.Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: record.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and linked to
// its replacement in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientIP, userAgent string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	var result *LoginResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token_hash = ?", hashRefreshToken(refreshToken)).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if !stored.Active(time.Now()) {
			return ErrInvalidRefreshToken
		}

		var user models.User
		if err := tx.First(&user, stored.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if !user.IsActive {
			return ErrUserDisabled
		}
		if !stored.IssuedFor(&user) {
			return ErrInvalidRefreshToken
		}

		issued, err := s.issueTokens(tx, &user, clientIP, userAgent)
		if err != nil {
			return err
		}

		var newRecord models.RefreshToken
		if err := tx.Where("token_hash = ?", hashRefreshToken(issued.RefreshToken)).First(&newRecord).Error; err != nil {
			return err
		}
		if err := tx.Model(&stored).Updates(map[string]interface{}{
			"revoked_at":           time.Now(),
			"replaced_by_token_id": newRecord.ID,
		}).Error; err != nil {
			return err
		}

		issued.User = &user
		result = issued
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reportweek.NotFoundf("user %d not found", id)
		}
		return nil, reportweek.Internal("failed to load user", err)
	}
	return &user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, tenantID *uint) ([]models.User, error) {
	var users []models.User
	query := s.db.WithContext(ctx).Order("id ASC")
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, reportweek.Internal("failed to list users", err)
	}
	return users, nil
}

// CreateUser adds a local user. Operators and viewers must belong to an
// existing tenant; admins must not.
func (s *AuthService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, reportweek.Validationf("username is required")
	}
	if !models.ValidRole(req.Role) {
		return nil, reportweek.Validationf("invalid role %q", req.Role)
	}
	if len(req.Password) < 6 {
		return nil, reportweek.Validationf("password must be at least 6 characters")
	}

	tenantID := req.TenantID
	if req.Role == models.RoleAdmin {
		tenantID = nil
	} else {
		if tenantID == nil || *tenantID == 0 {
			return nil, reportweek.Validationf("role %s requires tenant_id", req.Role)
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", *tenantID).Count(&count).Error; err != nil {
			return nil, reportweek.Internal("failed to check tenant", err)
		}
		if count == 0 {
			return nil, reportweek.NotFoundf("tenant %d not found", *tenantID)
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, reportweek.Validationf("password is too long")
		}
		return nil, reportweek.Internal("failed to hash password", err)
	}

	user := models.User{
		Username: username,
		Password: hashed,
		Email:    req.Email,
		Nickname: req.Nickname,
		Role:     req.Role,
		TenantID: tenantID,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isConstraintViolation(err) {
			return nil, reportweek.Conflictf("username %q is already taken", username)
		}
		return nil, reportweek.Internal("failed to create user", err)
	}

	logger.Infof("[Auth] Created %s user %s", user.Role, user.Username)
	return &user, nil
}

// CreateAdminIfNotExists bootstraps the first admin from config.
func (s *AuthService) CreateAdminIfNotExists(ctx context.Context, admin *config.AdminConfig) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := s.CreateUser(ctx, &CreateUserRequest{
		Username: admin.Username,
		Password: admin.Password,
		Nickname: "Administrator",
		Role:     models.RoleAdmin,
	})
	return err
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return reportweek.NotFoundf("user %d not found", userID)
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return reportweek.Validationf("incorrect old password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return reportweek.Validationf("new password is too long")
		}
		return reportweek.Internal("failed to hash password", err)
	}

	// Every open session ends with the old password.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", hashed).Error; err != nil {
			return err
		}
		return revokeUserSessions(tx, user.ID)
	})
}

func revokeUserSessions(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}
