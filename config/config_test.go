package config

import "testing"

func TestLoadConfigFromEnvironmentOnly(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env_only")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env_only")
	t.Setenv("JWT_SECRET", "jwt_env_only")

	LoadConfig()

	if ResolvedStripe.SecretKey != "sk_test_env_only" {
		t.Errorf("SecretKey = %q, want the env-supplied key", ResolvedStripe.SecretKey)
	}
	if ResolvedStripe.WebhookSecret != "whsec_env_only" {
		t.Errorf("WebhookSecret = %q, want the env-supplied secret", ResolvedStripe.WebhookSecret)
	}
	if AppConfig.JWTSecret != "jwt_env_only" {
		t.Errorf("JWTSecret = %q, want the env-supplied secret", AppConfig.JWTSecret)
	}
}

func TestPerEnvironmentKeyWinsOverSingleKey(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STRIPE_SECRET_KEY", "sk_single")
	t.Setenv("STRIPE_TEST_SECRET_KEY", "sk_test_shape")

	LoadConfig()

	if ResolvedStripe.SecretKey != "sk_test_shape" {
		t.Errorf("SecretKey = %q, want the per-environment key to win", ResolvedStripe.SecretKey)
	}
}

func TestResolvePaymentKeysProduction(t *testing.T) {
	keys := resolvePaymentKeys(Config{
		Env:                 "production",
		StripeSecretKey:     "sk_single",
		StripeLiveSecretKey: "sk_live_shape",
		StripeTestSecretKey: "sk_test_shape",
		StripeWebhookSecret: "whsec_1",
	})
	if keys.SecretKey != "sk_live_shape" {
		t.Errorf("SecretKey = %q, want the live key in production", keys.SecretKey)
	}
	if keys.WebhookSecret != "whsec_1" {
		t.Errorf("WebhookSecret = %q, want whsec_1", keys.WebhookSecret)
	}
}
