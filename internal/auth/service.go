package auth

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/iqac-backend/internal/conf"
	"github.com/lk2023060901/iqac-backend/internal/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates the single configured moderator account and
// issues role-bearing tokens. This replaces the legacy spoofable
// x-admin-access request header.
type AuthService struct {
	cfg    conf.AuthConfig
	jwt    *JWTManager
	logger *zap.Logger
}

func NewAuthService(cfg conf.AuthConfig, jwt *JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{cfg: cfg, jwt: jwt, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials against the configured admin account.
func (s *AuthService) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Email and password are required")
		return
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.cfg.AdminEmail)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(req.Password))
	if !emailMatch || passErr != nil {
		s.logger.Warn("failed login attempt",
			zap.String("email", req.Email),
			zap.String("ip", c.ClientIP()))
		response.Unauthorized(c, "Invalid email or password")
		return
	}

	token, err := s.jwt.GenerateToken(s.cfg.AdminEmail, RoleAdmin)
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		response.InternalError(c, "Server Error")
		return
	}

	response.Success(c, gin.H{
		"message": "Login successful",
		"token":   token,
	})
}

// RegisterRoutes mounts the auth endpoints.
func (s *AuthService) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/auth/login", s.Login)
}
