package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", AdminIDs: []int64{100}},
		Channels: []Channel{
			{Name: "Explore China"},
		},
		Tiers: []PriceTier{
			{Duration: "1 день", Amount: 1000},
		},
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, 10, cfg.Ad.TextMinLen)
	assert.Equal(t, 500, cfg.Ad.TextMaxLen)
	assert.Equal(t, 5, cfg.RateLimit.MaxEvents)
	assert.Equal(t, 10, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "adbot.db", cfg.Database.Path)
	assert.Equal(t, "adbot.lock", cfg.Lock.Path)
	assert.Equal(t, 10, cfg.Broadcast.PerSecond)
	assert.Equal(t, 1.0, cfg.Channels[0].PriceMultiplier)
	assert.Equal(t, "RUB", cfg.Tiers[0].Currency)
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = "  "
	assert.ErrorContains(t, Normalize(cfg), "token")
}

func TestNormalizeRequiresChannelsAndTiers(t *testing.T) {
	cfg := validConfig()
	cfg.Channels = nil
	assert.ErrorContains(t, Normalize(cfg), "channel")

	cfg = validConfig()
	cfg.Tiers = nil
	assert.ErrorContains(t, Normalize(cfg), "tier")
}

func TestNormalizeRejectsDuplicateChannels(t *testing.T) {
	cfg := validConfig()
	cfg.Channels = append(cfg.Channels, Channel{Name: "Explore China"})
	assert.ErrorContains(t, Normalize(cfg), "duplicate")
}

func TestNormalizeRejectsInvalidTextBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Ad.TextMinLen = 100
	cfg.Ad.TextMaxLen = 50
	assert.ErrorContains(t, Normalize(cfg), "bounds")
}

func TestNormalizePostgresRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"
	assert.ErrorContains(t, Normalize(cfg), "host")

	cfg.Database.Host = "localhost"
	cfg.Database.Name = "adbot"
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestNormalizeRejectsUnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mongodb"
	assert.ErrorContains(t, Normalize(cfg), "driver")
}

func TestLoadReadsYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
telegram:
  token: "file-token"
  admin_ids: [100, 200]
channels:
  - name: "Explore China"
    id: "@explorezhongguo"
tiers:
  - duration: "1 день"
    amount: 1000
ad:
  text_max_len: 400
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token, "env must win over the file")
	assert.Equal(t, []int64{100, 200}, cfg.Telegram.AdminIDs)
	assert.Equal(t, 400, cfg.Ad.TextMaxLen)
	assert.Equal(t, 10, cfg.Ad.TextMinLen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfigLookups(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	ch, ok := cfg.ChannelByName("Explore China")
	require.True(t, ok)
	assert.Equal(t, "Explore China", ch.Name)

	_, ok = cfg.ChannelByName("нет такого")
	assert.False(t, ok)

	tier, ok := cfg.TierByDuration("1 день")
	require.True(t, ok)
	assert.Equal(t, 1000, tier.Amount)

	_, ok = cfg.TierByDuration("век")
	assert.False(t, ok)

	assert.True(t, cfg.IsAdmin(100))
	assert.False(t, cfg.IsAdmin(999))
}
