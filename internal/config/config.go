package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config contiene toda la configuración del sistema
type Config struct {
	LCAbyg   LCAbygConfig
	Storage  StorageConfig
	Discord  DiscordConfig  `validate:"-"`
	Database DatabaseConfig `validate:"-"`
}

// LCAbygConfig configuración de conexión a la API web de LCAbyg
type LCAbygConfig struct {
	ServerURL string `validate:"required,url"`
	Username  string `validate:"required"`
	APIKey    string `validate:"required"`
	Target    string `validate:"required"` // Motor de cálculo, ej. lcabyg5+br23
	Poll      PollConfig
	Timeout   time.Duration `validate:"gt=0"`
}

// PollConfig política de consulta del estado de un job
type PollConfig struct {
	Interval    time.Duration `validate:"gt=0"`
	MaxAttempts int           `validate:"gt=0"`
}

// StorageConfig configuración de almacenamiento
type StorageConfig struct {
	BasePath string `validate:"required"` // Directorio base para resultados y reportes
}

// DiscordConfig configuración del bot de Discord
type DiscordConfig struct {
	BotToken  string
	ChannelID string // Canal donde se publican los reportes de sensibilidad
}

// Enabled indica si hay datos suficientes para notificar por Discord
func (d DiscordConfig) Enabled() bool {
	return d.BotToken != "" && d.ChannelID != ""
}

// DatabaseConfig configuración de la base de datos MySQL
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Enabled indica si se configuró una base de datos
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	// Cargar archivo .env si existe
	godotenv.Load()

	pollSeconds, err := getEnvInt("POLL_INTERVAL_SECONDS", 1)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getEnvInt("POLL_MAX_ATTEMPTS", 600)
	if err != nil {
		return nil, err
	}
	timeoutSeconds, err := getEnvInt("HTTP_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	config := &Config{
		LCAbyg: LCAbygConfig{
			ServerURL: getEnvOrDefault("LCABYG_SERVER_URL", "https://api1.lcabyg.dk"),
			Username:  os.Getenv("LCABYG_USERNAME"),
			APIKey:    os.Getenv("LCABYG_API_KEY"),
			Target:    getEnvOrDefault("LCABYG_TARGET", "lcabyg5+br23"),
			Poll: PollConfig{
				Interval:    time.Duration(pollSeconds) * time.Second,
				MaxAttempts: maxAttempts,
			},
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		Storage: StorageConfig{
			BasePath: getEnvOrDefault("STORAGE_BASE_PATH", "data/results"),
		},
		Discord: DiscordConfig{
			BotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnvOrDefault("DB_PORT", "3306"),
			Username: os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: getEnvOrDefault("DB_DATABASE", "lcabyg_sensitivity"),
		},
	}

	return config, nil
}

// Validate verifica los campos obligatorios antes de hablar con la API
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuración inválida: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s debe ser un entero (%q): %w", key, value, err)
	}
	return parsed, nil
}
