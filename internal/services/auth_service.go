// internal/services/auth_service.go
package services

import (
	"errors"

	"github.com/affilink/affiliate-backend/internal/config"
	"github.com/affilink/affiliate-backend/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	cfg *config.Config
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// IssueToken exchanges the operator credential for a signed API token.
func (s *AuthService) IssueToken(req *TokenRequest) (string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return "", err
	}

	if req.Username != s.cfg.Admin.Username {
		return "", ErrInvalidCredentials
	}

	if s.cfg.Admin.PasswordHash == "" || !utils.CheckPassword(s.cfg.Admin.PasswordHash, req.Password) {
		return "", ErrInvalidCredentials
	}

	return utils.GenerateJWT(req.Username, "admin", s.cfg.JWT.AccessTokenTTL)
}
