package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// v is the viper instance behind Conf; Watch re-unmarshals from it.
var v *viper.Viper

// Config struct is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Detection DetectionConfig `mapstructure:"detection"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Points    PointsConfig    `mapstructure:"points"`
	Session   SessionConfig   `mapstructure:"session"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DetectionConfig holds the calibration constants for the per-frame
// classifiers and the temporal event detector. Every threshold here is
// environment-dependent (camera, lighting, distance) and must stay tunable.
type DetectionConfig struct {
	FPS           float64 `mapstructure:"fps"`
	EyeClosedArea float64 `mapstructure:"eye_closed_area"`
	YawnRatio     float64 `mapstructure:"yawn_ratio"`

	// YawnRatioAlt is the looser mouth threshold for capture pipelines that
	// run without blink compensation (they read a lower ratio for the same
	// mouth opening). The live stream classifies with YawnRatio; clients
	// doing their own classification fetch this one from config.
	YawnRatioAlt          float64 `mapstructure:"yawn_ratio_alt"`
	YawnWindowSeconds     float64 `mapstructure:"yawn_window_seconds"`
	YawnWeightedThreshold float64 `mapstructure:"yawn_weighted_threshold"`
	YawnMinDurationFrames int     `mapstructure:"yawn_min_duration_frames"`
	DrowsyWindowSeconds   float64 `mapstructure:"drowsy_window_seconds"`
	DrowsyClosedFraction  float64 `mapstructure:"drowsy_closed_fraction"`

	// NoFacePolicy decides what a frame without detected landmarks does to
	// the sliding windows: "skip" freezes them, "absent" pushes false
	// (no face counts as not-yawning / eyes open).
	NoFacePolicy string `mapstructure:"no_face_policy"`
}

// ScoringConfig holds the attention score parameters.
type ScoringConfig struct {
	Baseline         int     `mapstructure:"baseline"`
	YawnPenalty      int     `mapstructure:"yawn_penalty"`
	DrowsyPenalty    int     `mapstructure:"drowsy_penalty"`
	BlinkRatePenalty int     `mapstructure:"blink_rate_penalty"`
	BlinkRateMin     float64 `mapstructure:"blink_rate_min"`
	BlinkRateMax     float64 `mapstructure:"blink_rate_max"`
	BlinkMinSeconds  float64 `mapstructure:"blink_min_seconds"`
	BlinkMaxSeconds  float64 `mapstructure:"blink_max_seconds"`
	DrowsyMinSeconds float64 `mapstructure:"drowsy_min_seconds"`
}

// PointsConfig holds the reward rule parameters.
type PointsConfig struct {
	AttentionMinMinutes  int `mapstructure:"attention_min_minutes"`
	AttentionMinScore    int `mapstructure:"attention_min_score"`
	AttentionBonus       int `mapstructure:"attention_bonus"`
	HourlyBonus          int `mapstructure:"hourly_bonus"`
	AttendanceMinSeconds int `mapstructure:"attendance_min_seconds"`
	AttendanceBonus      int `mapstructure:"attendance_bonus"`
	StreakInterval       int `mapstructure:"streak_interval"`
	StreakBonus          int `mapstructure:"streak_bonus"`
}

// SessionConfig holds study-session lifecycle settings.
type SessionConfig struct {
	MaxOpenHours int `mapstructure:"max_open_hours"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "focustrack-db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Detection defaults. The eye area value in particular needs per-setup
	// calibration; 0.0009 assumes mediapipe-style normalized coordinates.
	v.SetDefault("detection.fps", 15.0)
	v.SetDefault("detection.eye_closed_area", 0.0009)
	v.SetDefault("detection.yawn_ratio", 0.55)
	v.SetDefault("detection.yawn_ratio_alt", 0.4)
	v.SetDefault("detection.yawn_window_seconds", 3.0)
	v.SetDefault("detection.yawn_weighted_threshold", 0.4)
	v.SetDefault("detection.yawn_min_duration_frames", 5)
	v.SetDefault("detection.drowsy_window_seconds", 2.0)
	v.SetDefault("detection.drowsy_closed_fraction", 0.8)
	v.SetDefault("detection.no_face_policy", "skip")

	// Scoring defaults
	v.SetDefault("scoring.baseline", 100)
	v.SetDefault("scoring.yawn_penalty", 2)
	v.SetDefault("scoring.drowsy_penalty", 5)
	v.SetDefault("scoring.blink_rate_penalty", 2)
	v.SetDefault("scoring.blink_rate_min", 5.0)
	v.SetDefault("scoring.blink_rate_max", 25.0)
	v.SetDefault("scoring.blink_min_seconds", 0.1)
	v.SetDefault("scoring.blink_max_seconds", 0.3)
	v.SetDefault("scoring.drowsy_min_seconds", 0.5)

	// Points defaults
	v.SetDefault("points.attention_min_minutes", 25)
	v.SetDefault("points.attention_min_score", 60)
	v.SetDefault("points.attention_bonus", 2)
	v.SetDefault("points.hourly_bonus", 5)
	v.SetDefault("points.attendance_min_seconds", 3600)
	v.SetDefault("points.attendance_bonus", 2)
	v.SetDefault("points.streak_interval", 7)
	v.SetDefault("points.streak_bonus", 2)

	// Session defaults
	v.SetDefault("session.max_open_hours", 12)
}

// Init initializes the configuration with Viper. It runs before the logger
// exists (the logger's rotation settings come from here), so reporting goes
// through the returned error; hot reloading is enabled separately by Watch.
func Init(projectRoot string) error {
	v = viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("FOCUSTRACK") // e.g., FOCUSTRACK_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return nil
}

// Watch sets up hot-reloading of the configuration file. Called once the
// real logger is running so reload events have somewhere to go.
func Watch(log *zap.Logger) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})
}
