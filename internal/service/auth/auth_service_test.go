package auth

import (
	"context"
	"testing"

	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAdmin(t *testing.T) {
	viper.Set(constants.ViperSecretKey, "hunter2")
	t.Cleanup(func() { viper.Set(constants.ViperSecretKey, "") })
	svc := NewService("hunter2")

	resp, err := svc.LoginAdmin(context.Background(), &LoginAdminRequest{Name: "ops", Secret: "hunter2"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AuthToken)

	subject, err := svc.Authorize(resp.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, "ops", subject)

	_, err = svc.LoginAdmin(context.Background(), &LoginAdminRequest{Name: "ops", Secret: "wrong"})
	assert.ErrorIs(t, err, constants.ErrUnauthorized)

	_, err = svc.Authorize("not-a-token")
	assert.ErrorIs(t, err, constants.ErrUnauthorized)
}

func TestLoginAdmin_NoSecretConfigured(t *testing.T) {
	_, err := NewService("").LoginAdmin(context.Background(), &LoginAdminRequest{Name: "ops", Secret: ""})
	assert.ErrorIs(t, err, constants.ErrUnauthorized)
}

func TestAuthorize_RotatedSecret(t *testing.T) {
	viper.Set(constants.ViperSecretKey, "old")
	t.Cleanup(func() { viper.Set(constants.ViperSecretKey, "") })

	token, err := NewService("old").LoginAdmin(context.Background(), &LoginAdminRequest{Name: "ops", Secret: "old"})
	require.NoError(t, err)

	// same signing key, different expected secret
	_, err = NewService("new").Authorize(token.AuthToken)
	assert.ErrorIs(t, err, constants.ErrUnauthorized)
}
