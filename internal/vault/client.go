// Package vault stores notification credentials and data-feed API keys in
// HashiCorp Vault (KV v2), with an in-memory cache and a local-only mode for
// development when Vault is disabled.
package vault

import (
	"context"
	"fmt"
	"sync"

	"equity-signal-bot/config"

	"github.com/hashicorp/vault/api"
)

// Secret names under the configured secret path.
const (
	secretNotifiers = "notifiers"
	secretFeeds     = "feeds"
)

// NotifierSecrets holds the alert-channel credentials stored in Vault
type NotifierSecrets struct {
	TelegramBotToken  string `json:"telegram_bot_token"`
	TelegramChatID    string `json:"telegram_chat_id"`
	DiscordWebhookURL string `json:"discord_webhook_url"`
}

// FeedCredentials holds the market-data API key stored in Vault
type FeedCredentials struct {
	APIKey string `json:"api_key"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client       *api.Client
	config       config.VaultConfig
	mu           sync.RWMutex
	cache        map[string]map[string]interface{} // secret name -> raw KV data
	cacheEnabled bool
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config:       cfg,
			cache:        make(map[string]map[string]interface{}),
			cacheEnabled: true,
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client:       client,
		config:       cfg,
		cache:        make(map[string]map[string]interface{}),
		cacheEnabled: true,
	}, nil
}

// StoreNotifierSecrets stores the alert-channel credentials in Vault
func (c *Client) StoreNotifierSecrets(ctx context.Context, data NotifierSecrets) error {
	return c.writeSecret(ctx, secretNotifiers, map[string]interface{}{
		"telegram_bot_token":  data.TelegramBotToken,
		"telegram_chat_id":    data.TelegramChatID,
		"discord_webhook_url": data.DiscordWebhookURL,
	})
}

// GetNotifierSecrets retrieves the alert-channel credentials from Vault
func (c *Client) GetNotifierSecrets(ctx context.Context) (*NotifierSecrets, error) {
	data, err := c.readSecret(ctx, secretNotifiers)
	if err != nil {
		return nil, err
	}
	return &NotifierSecrets{
		TelegramBotToken:  getString(data, "telegram_bot_token"),
		TelegramChatID:    getString(data, "telegram_chat_id"),
		DiscordWebhookURL: getString(data, "discord_webhook_url"),
	}, nil
}

// StoreFeedCredentials stores the market-data API key in Vault
func (c *Client) StoreFeedCredentials(ctx context.Context, data FeedCredentials) error {
	return c.writeSecret(ctx, secretFeeds, map[string]interface{}{
		"api_key": data.APIKey,
	})
}

// GetFeedCredentials retrieves the market-data API key from Vault
func (c *Client) GetFeedCredentials(ctx context.Context) (*FeedCredentials, error) {
	data, err := c.readSecret(ctx, secretFeeds)
	if err != nil {
		return nil, err
	}
	return &FeedCredentials{
		APIKey: getString(data, "api_key"),
	}, nil
}

// DeleteSecret removes a named secret from Vault and the cache
func (c *Client) DeleteSecret(ctx context.Context, name string) error {
	c.mu.Lock()
	delete(c.cache, name)
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	if _, err := c.client.Logical().DeleteWithContext(ctx, c.metadataPath(name)); err != nil {
		return fmt.Errorf("failed to delete secret from vault: %w", err)
	}
	return nil
}

func (c *Client) writeSecret(ctx context.Context, name string, fields map[string]interface{}) error {
	if !c.config.Enabled {
		// Store in local cache only (for development/testing)
		c.mu.Lock()
		c.cache[name] = fields
		c.mu.Unlock()
		return nil
	}

	secretData := map[string]interface{}{
		"data": fields,
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, c.secretPath(name), secretData); err != nil {
		return fmt.Errorf("failed to store secret in vault: %w", err)
	}

	// Update cache
	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[name] = fields
		c.mu.Unlock()
	}

	return nil
}

func (c *Client) readSecret(ctx context.Context, name string) (map[string]interface{}, error) {
	// Check cache first
	if c.cacheEnabled {
		c.mu.RLock()
		if cached, ok := c.cache[name]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()
	}

	if !c.config.Enabled {
		return nil, fmt.Errorf("secret %q not found and vault is disabled", name)
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret %q not found", name)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	// Update cache
	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[name] = data
		c.mu.Unlock()
	}

	return data, nil
}

// ClearCache clears the in-memory cache
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]map[string]interface{})
	c.mu.Unlock()
}

// SetCacheEnabled enables or disables caching
func (c *Client) SetCacheEnabled(enabled bool) {
	c.mu.Lock()
	c.cacheEnabled = enabled
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// secretPath returns the KV v2 data path for a named secret
func (c *Client) secretPath(name string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, name)
}

// metadataPath returns the KV v2 metadata path for a named secret
func (c *Client) metadataPath(name string) string {
	return fmt.Sprintf("%s/metadata/%s/%s", c.config.MountPath, c.config.SecretPath, name)
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// NewMockClient creates a disabled client backed only by the local cache,
// for testing
func NewMockClient() *Client {
	return &Client{
		config: config.VaultConfig{
			Enabled: false,
		},
		cache:        make(map[string]map[string]interface{}),
		cacheEnabled: true,
	}
}
