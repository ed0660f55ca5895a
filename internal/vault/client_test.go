package vault

import (
	"context"
	"testing"

	"equity-signal-bot/config"
)

func TestDisabledVaultRoundTrip(t *testing.T) {
	c, err := NewClient(config.VaultConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.IsEnabled() {
		t.Fatal("client should report disabled")
	}

	ctx := context.Background()

	if _, err := c.GetNotifierSecrets(ctx); err == nil {
		t.Error("expected error reading secret before it is stored")
	}

	want := NotifierSecrets{
		TelegramBotToken:  "tok",
		TelegramChatID:    "42",
		DiscordWebhookURL: "https://discord.test/hook",
	}
	if err := c.StoreNotifierSecrets(ctx, want); err != nil {
		t.Fatalf("StoreNotifierSecrets: %v", err)
	}

	got, err := c.GetNotifierSecrets(ctx)
	if err != nil {
		t.Fatalf("GetNotifierSecrets: %v", err)
	}
	if *got != want {
		t.Errorf("round trip mismatch: got %+v want %+v", *got, want)
	}
}

func TestFeedCredentialsRoundTrip(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	if err := c.StoreFeedCredentials(ctx, FeedCredentials{APIKey: "key-123"}); err != nil {
		t.Fatalf("StoreFeedCredentials: %v", err)
	}
	got, err := c.GetFeedCredentials(ctx)
	if err != nil {
		t.Fatalf("GetFeedCredentials: %v", err)
	}
	if got.APIKey != "key-123" {
		t.Errorf("unexpected api key %q", got.APIKey)
	}
}

func TestClearCacheDropsLocalSecrets(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	if err := c.StoreNotifierSecrets(ctx, NotifierSecrets{TelegramBotToken: "tok"}); err != nil {
		t.Fatalf("StoreNotifierSecrets: %v", err)
	}
	c.ClearCache()

	if _, err := c.GetNotifierSecrets(ctx); err == nil {
		t.Error("expected error after cache cleared with vault disabled")
	}
}

func TestDeleteSecretRemovesFromCache(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	if err := c.StoreFeedCredentials(ctx, FeedCredentials{APIKey: "key"}); err != nil {
		t.Fatalf("StoreFeedCredentials: %v", err)
	}
	if err := c.DeleteSecret(ctx, "feeds"); err != nil {
		t.Fatalf("DeleteSecret: %v", err)
	}
	if _, err := c.GetFeedCredentials(ctx); err == nil {
		t.Error("expected error after secret deleted")
	}
}

func TestHealthNoopWhenDisabled(t *testing.T) {
	c := NewMockClient()
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("disabled Health should be nil, got %v", err)
	}
}
