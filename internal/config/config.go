package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver    string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string
	DBLogLevel  string
	AutoMigrate bool
	ServerPort  string
	JWTSecret   string
	JWTExpiry   time.Duration
	AppTimezone string
	GinMode     string
}

var defaults = map[string]any{
	"DB_DRIVER":        "postgres",
	"DB_HOST":          "localhost",
	"DB_PORT":          "5432",
	"DB_USER":          "teamtasks",
	"DB_PASSWORD":      "teamtasks",
	"DB_NAME":          "teamtasks",
	"DB_SSLMODE":       "disable",
	"SQLITE_PATH":      "data/teamtasks.db",
	"DB_LOG_LEVEL":     "warn",
	"AUTO_MIGRATE":     true,
	"SERVER_PORT":      "8080",
	"JWT_SECRET":       "supersecretkey",
	"JWT_EXPIRY_HOURS": 24,
	"APP_TIMEZONE":     "Europe/Istanbul",
	"GIN_MODE":         "debug",
}

// Load reads .env (when present), the optional CONFIG_FILE and the process
// environment. Environment variables win over the file.
func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("⚠️  Could not read config file %s: %v", file, err)
		} else {
			log.Printf("📄 Loaded config file %s", v.ConfigFileUsed())
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance. Keys
// in a config file may use either DB_HOST or db_host.
func FromViper(v *viper.Viper) *Config {
	hours := v.GetInt("JWT_EXPIRY_HOURS")
	if hours <= 0 {
		hours = 24
	}

	return &Config{
		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSLMODE"),
		SQLitePath:  v.GetString("SQLITE_PATH"),
		DBLogLevel:  v.GetString("DB_LOG_LEVEL"),
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),
		ServerPort:  v.GetString("SERVER_PORT"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTExpiry:   time.Duration(hours) * time.Hour,
		AppTimezone: v.GetString("APP_TIMEZONE"),
		GinMode:     v.GetString("GIN_MODE"),
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Location is the zone calendar days are computed in. An unknown zone falls
// back to the server's local zone.
func (c *Config) Location() *time.Location {
	if c.AppTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		log.Printf("⚠️  Unknown APP_TIMEZONE %q, using local time: %v", c.AppTimezone, err)
		return time.Local
	}
	return loc
}
