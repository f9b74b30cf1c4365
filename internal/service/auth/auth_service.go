// Package auth issues admin tokens for the curation endpoints.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/pkg/utils"
)

type Service struct {
	secret string
}

func NewService(secret string) *Service {
	return &Service{secret: secret}
}

type LoginAdminRequest struct {
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

type LoginAdminResponse struct {
	AuthToken string `json:"auth_token"`
}

// LoginAdmin trades the shared admin secret for a signed token.
func (svc *Service) LoginAdmin(ctx context.Context, request *LoginAdminRequest) (*LoginAdminResponse, error) {
	if svc.secret == "" || subtle.ConstantTimeCompare([]byte(request.Secret), []byte(svc.secret)) != 1 {
		logger.Warnf(ctx, "admin login rejected: name-%s", request.Name)
		return nil, constants.ErrUnauthorized
	}

	authToken, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{Subject: request.Name, Secret: svc.secret})
	if err != nil {
		return nil, fmt.Errorf("utils.GenerateAuthToken: %w", err)
	}

	logger.Debugf(ctx, "login: admin: [%s]", request.Name)
	return &LoginAdminResponse{AuthToken: authToken}, nil
}

// Authorize checks a raw admin token and returns its subject.
func (svc *Service) Authorize(raw string) (string, error) {
	token, err := utils.ParseAuthToken(raw)
	if err != nil {
		return "", err
	}
	if svc.secret == "" || subtle.ConstantTimeCompare([]byte(token.Secret), []byte(svc.secret)) != 1 {
		return "", constants.ErrUnauthorized
	}
	return token.Subject, nil
}
