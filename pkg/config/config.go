/*
Package config manages TOML config for TagServe services.
*/
package config

import (
	"path/filepath"

	"github.com/bastiangx/tagserve/internal/utils"
	"github.com/charmbracelet/log"
)

// FileName is the config file looked up in the user config dir.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Settings SettingsConfig `toml:"settings"`
	Server   ServerConfig   `toml:"server"`
	Vault    VaultConfig    `toml:"vault"`
	CLI      CliConfig      `toml:"cli"`
}

// SettingsConfig holds the user facing completion settings.
type SettingsConfig struct {
	MatchColor string `toml:"match_color"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit     int `toml:"max_limit"`
	DefaultLimit int `toml:"default_limit"`
	MaxQuery     int `toml:"max_query"`
}

// VaultConfig describes where notes live and how they are indexed.
type VaultConfig struct {
	Root       string   `toml:"root"`
	Extensions []string `toml:"extensions"`
	Watch      bool     `toml:"watch"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// DefaultMatchColor is used when no colour was ever saved.
const DefaultMatchColor = "#ff0000"

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			MatchColor: DefaultMatchColor,
		},
		Server: ServerConfig{
			MaxLimit:     64,
			DefaultLimit: 20,
			MaxQuery:     120,
		},
		Vault: VaultConfig{
			Root:       "",
			Extensions: []string{".md"},
			Watch:      true,
		},
		CLI: CliConfig{
			DefaultLimit: 10,
		},
	}
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/tagserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			config, err := InitConfig(customConfigPath)
			if err == nil {
				return config, customConfigPath, nil
			}
			log.Warnf("Custom config file not usable at %s: %v. Trying default path...", customConfigPath, err)
		}
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("Failed to resolve config dir: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	defaultPath, err := pathResolver.GetConfigPath(FileName)
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		return nil, err
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Keys missing from the file keep
// their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.normalize()
	return config, nil
}

// tryPartialParse salvages whatever sections still decode.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "settings"); ok {
		extractSettingsConfig(section, &config.Settings)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "vault"); ok {
		extractVaultConfig(section, &config.Vault)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.normalize()
	return config, nil
}

func extractSettingsConfig(data map[string]any, settings *SettingsConfig) {
	if val, ok := utils.ExtractString(data, "match_color"); ok {
		settings.MatchColor = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		server.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		server.MaxQuery = val
	}
}

func extractVaultConfig(data map[string]any, vault *VaultConfig) {
	if val, ok := utils.ExtractString(data, "root"); ok {
		vault.Root = val
	}
	if val, ok := utils.ExtractStringSlice(data, "extensions"); ok {
		vault.Extensions = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		vault.Watch = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// normalize replaces values that cannot be used with their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if !utils.IsValidColor(c.Settings.MatchColor) {
		log.Warnf("Invalid match_color %q, using %s", c.Settings.MatchColor, def.Settings.MatchColor)
		c.Settings.MatchColor = def.Settings.MatchColor
	}
	if c.Server.MaxLimit <= 0 {
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.Server.DefaultLimit <= 0 {
		c.Server.DefaultLimit = def.Server.DefaultLimit
	}
	if c.Server.MaxQuery <= 0 {
		c.Server.MaxQuery = def.Server.MaxQuery
	}
	if len(c.Vault.Extensions) == 0 {
		c.Vault.Extensions = def.Vault.Extensions
	}
	if c.CLI.DefaultLimit <= 0 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
