package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/spf13/viper"
)

const tokenTTL = 24 * time.Hour

// AuthTokenWrapper is the payload carried by admin tokens.
type AuthTokenWrapper struct {
	jwt.StandardClaims
	Subject string `json:"sub_name"`
	Secret  string `json:"secret"`
}

func GenerateAuthToken(wrapper *AuthTokenWrapper) (string, error) {
	wrapper.ExpiresAt = time.Now().Add(tokenTTL).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wrapper)

	return token.SignedString([]byte(viper.GetString(constants.ViperSecretKey)))
}

func ParseAuthToken(raw string) (*AuthTokenWrapper, error) {
	claims := new(AuthTokenWrapper)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(viper.GetString(constants.ViperSecretKey)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrUnauthorized, err.Error())
	}
	if !token.Valid {
		return nil, constants.ErrUnauthorized
	}

	return claims, nil
}
