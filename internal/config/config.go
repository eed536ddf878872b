// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// SitePrefix is the fixed prefix every external id starts with. The full
// external id is "<SitePrefix><site handle>__<item id>".
const SitePrefix = "WILLOW_"

// ExternalIDSeparator splits the site part of an external id from the item id.
const ExternalIDSeparator = "__"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"BTS_DB_PATH" envDefault:"./data/bts.db"`
	ServerHost string `env:"BTS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BTS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"BTS_ENV" envDefault:"development"`
	LogLevel   string `env:"BTS_LOG_LEVEL" envDefault:"info"`

	// SiteHandle distinguishes this deployment from others sharing the
	// vendor topic, e.g. "ili" or "his".
	SiteHandle string `env:"BTS_SITE_HANDLE,required"`

	// Vendor messaging configuration
	TopicARN  string `env:"BTS_TOPIC_ARN"`
	AWSRegion string `env:"BTS_AWS_REGION" envDefault:"eu-west-1"`

	// Vendor account fields, passed through to the vendor unmodified.
	APIKey           string `env:"BTS_API_KEY"`
	ServiceID        string `env:"BTS_SERVICE_ID"`
	InvoicingAccount string `env:"BTS_INVOICING_ACCOUNT"`
	WorkArea         string `env:"BTS_WORK_AREA"`
	Terminology      string `env:"BTS_TERMINOLOGY"`

	// Dedup cache configuration
	RedisURL    string `env:"BTS_REDIS_URL"`                       // Optional Redis URL for distributed dedup
	CachePrefix string `env:"BTS_CACHE_PREFIX" envDefault:"bts:"`  // Redis key prefix
	DedupTTL    int    `env:"BTS_DEDUP_TTL" envDefault:"86400"`    // Message-id dedup TTL in seconds

	// Webhook rate limiting
	WebhookRPS   float64 `env:"BTS_WEBHOOK_RPS" envDefault:"5"`
	WebhookBurst int     `env:"BTS_WEBHOOK_BURST" envDefault:"20"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisDedup returns true if Redis-backed dedup is configured.
func (c Config) UseRedisDedup() bool {
	return c.RedisURL != ""
}

// PublishEnabled returns true if outbound publishing is configured.
func (c Config) PublishEnabled() bool {
	return c.TopicARN != ""
}

// ExternalIDPrefix returns the external-id prefix owned by this deployment,
// e.g. "WILLOW_acme" for site handle "acme".
func (c Config) ExternalIDPrefix() string {
	return SitePrefix + c.SiteHandle
}

// ExternalID builds the external id for an item of this deployment,
// e.g. "WILLOW_acme__482".
func (c Config) ExternalID(itemID int64) string {
	return fmt.Sprintf("%s%s%d", c.ExternalIDPrefix(), ExternalIDSeparator, itemID)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// The separator is reserved by the external-id format; a handle
	// containing it would make inbound ids unparseable.
	if strings.Contains(cfg.SiteHandle, ExternalIDSeparator) {
		return nil, fmt.Errorf("BTS_SITE_HANDLE must not contain %q", ExternalIDSeparator)
	}

	return cfg, nil
}
