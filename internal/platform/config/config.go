package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del engine.
//
// Los valores de gamificación (tabla de puntos base, multiplicadores de
// prioridad, ventana de look-back, tamaño de página del batch) son constantes
// de negocio sin derivación documentada: se exponen como configuración con
// defaults fijos en vez de quedar enterradas en el código.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	HealthRecords HealthRecordsConfig `mapstructure:"health_records"`
	Gamification  GamificationConfig  `mapstructure:"gamification"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HealthRecordsConfig apunta al servicio externo dueño de los registros de
// salud (planes de medicación, avisos de ciclo de vida, dependientes).
type HealthRecordsConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type GamificationConfig struct {
	// Puntos base por tipo de evento.
	BasePoints map[string]int `mapstructure:"base_points"`
	// Multiplicador por prioridad del evento.
	PriorityMultipliers map[string]float64 `mapstructure:"priority_multipliers"`
	// Experiencia otorgada por punto.
	ExperiencePerPoint int `mapstructure:"experience_per_point"`
	// Avisos de ciclo de vida vencidos hace más de N días se descartan
	// (tunable, no load-bearing).
	LifecycleLookbackDays int `mapstructure:"lifecycle_lookback_days"`
	// Máximo de usuarios procesados por corrida del batch.
	BatchPageSize int `mapstructure:"batch_page_size"`
}

// Load lee la configuración desde un archivo YAML opcional + env vars con
// prefijo FHE (p.ej. FHE_DATABASE_DSN). Sin archivo, quedan defaults + env.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Sin archivo: defaults + env alcanzan.
		} else {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.Gamification.ExperiencePerPoint <= 0 {
		return Config{}, errors.New("config: gamification.experience_per_point must be positive")
	}
	if cfg.Gamification.BatchPageSize <= 0 {
		return Config{}, errors.New("config: gamification.batch_page_size must be positive")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("health_records.base_url", "")
	v.SetDefault("health_records.api_key", "")
	v.SetDefault("health_records.timeout_seconds", 5)

	v.SetDefault("gamification.base_points", map[string]int{
		"medication":          50,
		"feeding":             30,
		"health_checkup":      100,
		"vaccination":         80,
		"lifecycle_milestone": 60,
		"custom":              40,
	})
	v.SetDefault("gamification.priority_multipliers", map[string]float64{
		"low":    0.5,
		"normal": 1.0,
		"high":   1.5,
		"urgent": 2.0,
	})
	v.SetDefault("gamification.experience_per_point", 10)
	v.SetDefault("gamification.lifecycle_lookback_days", 3)
	v.SetDefault("gamification.batch_page_size", 1000)
}
