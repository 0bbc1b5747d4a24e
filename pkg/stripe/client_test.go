package stripe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestNewClientValidatesKeyPrefix(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_live_123", Env: "test"}, nil)
	require.Error(t, err)

	_, err = NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123", Env: "live"}, nil)
	require.Error(t, err)

	_, err = NewClient(context.Background(), config.StripeConfig{APIKey: "", Env: "test"}, nil)
	require.Error(t, err)

	_, err = NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123", Env: "staging"}, nil)
	require.Error(t, err)
}

func TestNewClientAllowsMissingSigningSecret(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Empty(t, client.SigningSecret())
	assert.NotNil(t, client.PaymentIntents())
}

func TestNewClientTrimsSigningSecret(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "rk_test_1", WebhookSecret: " whsec_1 "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "whsec_1", client.SigningSecret())
}
