package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Library   LibraryConfig   `toml:"library"`
	Player    PlayerConfig    `toml:"player"`
	Storage   StorageConfig   `toml:"storage"`
	Favorites FavoritesConfig `toml:"favorites"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the audio streaming HTTP server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LibraryConfig points at the directory holding local audio files.
type LibraryConfig struct {
	TracksDir string `toml:"tracks_dir"`
	Watch     bool   `toml:"watch"`
}

// PlayerConfig contains playback defaults.
type PlayerConfig struct {
	Volume        int    `toml:"volume"`
	StreamBaseURL string `toml:"stream_base_url"`
}

// StorageConfig selects the blob store used for cover and track images.
type StorageConfig struct {
	Backend   string      `toml:"backend"`
	Dir       string      `toml:"dir"`
	PublicURL string      `toml:"public_url"`
	Minio     MinioConfig `toml:"minio"`
}

// MinioConfig contains MinIO / S3 credentials.
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
	Region    string `toml:"region"`
}

// FavoritesConfig selects where favorite toggles are sent.
type FavoritesConfig struct {
	Endpoint string `toml:"endpoint"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// StreamBaseURL returns the base URL that file:// locators are rewritten against.
//
// Falls back to the local streaming server address when unset.
func (c *Config) StreamBaseURL() string {
	if c.Player.StreamBaseURL != "" {
		return c.Player.StreamBaseURL
	}
	return "http://" + c.Server.Addr()
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads .env files (missing files are ignored) and applies PLAYDECK_* overrides.
//
// Variables already present in the process environment win over .env values.
func ApplyEnv(c *Config, files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	setString(&c.Database.Path, "PLAYDECK_DB_PATH")
	setString(&c.Server.Host, "PLAYDECK_SERVER_HOST")
	setString(&c.Library.TracksDir, "PLAYDECK_TRACKS_DIR")
	setString(&c.Player.StreamBaseURL, "PLAYDECK_STREAM_BASE_URL")
	setString(&c.Storage.Backend, "PLAYDECK_STORAGE_BACKEND")
	setString(&c.Storage.Minio.AccessKey, "PLAYDECK_MINIO_ACCESS_KEY")
	setString(&c.Storage.Minio.SecretKey, "PLAYDECK_MINIO_SECRET_KEY")
	setString(&c.Favorites.Endpoint, "PLAYDECK_FAVORITES_ENDPOINT")
	setString(&c.Log.Level, "PLAYDECK_LOG_LEVEL")

	if v, ok := os.LookupEnv("PLAYDECK_SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PLAYDECK_SERVER_PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
