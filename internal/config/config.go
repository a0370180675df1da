// Package config assembles the runtime configuration of the archive server
// from defaults, an optional JSON file, environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting of the server.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	SQLitePath          string        `env:"SQLITE_PATH" validate:"filepath"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	UploadDir           string        `env:"UPLOAD_DIR" validate:"required"`
	MaxUploadSize       int64         `env:"MAX_UPLOAD_SIZE" validate:"gt=0"`
	JWTSecret           string        `env:"JWT_SECRET" validate:"required,min=16"`
	TokenTTL            time.Duration `env:"TOKEN_TTL" validate:"gt=0"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	FileStorage         string        `env:"FILE_STORAGE" validate:"oneof=disk s3"`
	S3Bucket            string        `env:"S3_BUCKET" validate:"required_if=FileStorage s3"`
	S3Region            string        `env:"S3_REGION"`
	S3Endpoint          string        `env:"S3_ENDPOINT" validate:"omitempty,url"`
	S3AccessKey         string        `env:"S3_ACCESS_KEY"`
	S3SecretKey         string        `env:"S3_SECRET_KEY"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	FileRemovalInterval time.Duration `env:"FILE_REMOVAL_INTERVAL" validate:"gt=0"`
	ConfigFile          string        `env:"CONFIG"`
}

var defaultConfig = Config{
	RunAddr:             ":5000",
	LogLevel:            "info",
	SQLitePath:          "data/arsip.db",
	DBConnectionTimeout: 10 * time.Second,
	UploadDir:           "uploads",
	MaxUploadSize:       5 << 20,
	JWTSecret:           "dev-only-secret-change-me",
	TokenTTL:            24 * time.Hour,
	FileStorage:         "disk",
	S3Region:            "us-east-1",
	CORSAllowedOrigins:  []string{"*"},
	FileRemovalInterval: 5 * time.Second,
}

// fileConfig mirrors Config for the JSON file, where durations are strings
// such as "24h".
type fileConfig struct {
	RunAddr             string   `json:"server_address"`
	LogLevel            string   `json:"log_level"`
	DatabaseDSN         string   `json:"database_dsn"`
	SQLitePath          string   `json:"sqlite_path"`
	DBConnectionTimeout string   `json:"db_connection_timeout"`
	UploadDir           string   `json:"upload_dir"`
	MaxUploadSize       int64    `json:"max_upload_size"`
	JWTSecret           string   `json:"jwt_secret"`
	TokenTTL            string   `json:"token_ttl"`
	TrustedSubnet       string   `json:"trusted_subnet"`
	FileStorage         string   `json:"file_storage"`
	S3Bucket            string   `json:"s3_bucket"`
	S3Region            string   `json:"s3_region"`
	S3Endpoint          string   `json:"s3_endpoint"`
	S3AccessKey         string   `json:"s3_access_key"`
	S3SecretKey         string   `json:"s3_secret_key"`
	CORSAllowedOrigins  []string `json:"cors_allowed_origins"`
	FileRemovalInterval string   `json:"file_removal_interval"`
}

// InitOption customizes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips command-line flags; tests use it.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses the given arguments instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New loads and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := Config{}
	applyDefaults(&values, defaultConfig)

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	var fromFlags Config
	if !options.disableFlagsParsing {
		if err := parseFlags(&fromFlags, options.args); err != nil {
			return nil, err
		}
	}

	configFile := fromEnv.ConfigFile
	if fromFlags.ConfigFile != "" {
		configFile = fromFlags.ConfigFile
	}
	if configFile != "" {
		fromFile, err := loadFile(configFile)
		if err != nil {
			return nil, err
		}
		overlay(&values, fromFile)
	}

	overlay(&values, &fromEnv)
	overlay(&values, &fromFlags)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

func applyDefaults(values *Config, defaults Config) {
	overlay(values, &defaults)
}

// overlay copies every non-zero field of src onto dst.
func overlay(dst, src *Config) {
	dstValue := reflect.ValueOf(dst).Elem()
	srcValue := reflect.ValueOf(src).Elem()
	for i := 0; i < srcValue.NumField(); i++ {
		if field := srcValue.Field(i); !field.IsZero() {
			dstValue.Field(i).Set(field)
		}
	}
}

func parseFlags(values *Config, args []string) error {
	flags := flag.NewFlagSet("arsipsurat", flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", "", "address and port to run server")
	flags.StringVar(&values.LogLevel, "l", "", "logger level")
	flags.StringVar(&values.DatabaseDSN, "d", "", "PostgreSQL connection string")
	flags.StringVar(&values.SQLitePath, "s", "", "SQLite database file used when no DSN is given")
	flags.StringVar(&values.UploadDir, "u", "", "directory for uploaded attachments")
	flags.StringVar(&values.ConfigFile, "c", "", "JSON configuration file")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("in internal/config/config.go/parseFlags(): error while `flags.Parse()` calling: %w", err)
	}

	return nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/loadFile(): error while `os.ReadFile()` calling: %w", err)
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/loadFile(): error while `json.Unmarshal()` calling: %w", err)
	}

	result := &Config{
		RunAddr:            raw.RunAddr,
		LogLevel:           raw.LogLevel,
		DatabaseDSN:        raw.DatabaseDSN,
		SQLitePath:         raw.SQLitePath,
		UploadDir:          raw.UploadDir,
		MaxUploadSize:      raw.MaxUploadSize,
		JWTSecret:          raw.JWTSecret,
		TrustedSubnet:      raw.TrustedSubnet,
		FileStorage:        raw.FileStorage,
		S3Bucket:           raw.S3Bucket,
		S3Region:           raw.S3Region,
		S3Endpoint:         raw.S3Endpoint,
		S3AccessKey:        raw.S3AccessKey,
		S3SecretKey:        raw.S3SecretKey,
		CORSAllowedOrigins: raw.CORSAllowedOrigins,
	}
	if result.DBConnectionTimeout, err = parseOptionalDuration(raw.DBConnectionTimeout); err != nil {
		return nil, err
	}
	if result.TokenTTL, err = parseOptionalDuration(raw.TokenTTL); err != nil {
		return nil, err
	}
	if result.FileRemovalInterval, err = parseOptionalDuration(raw.FileRemovalInterval); err != nil {
		return nil, err
	}

	return result, nil
}

func parseOptionalDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("in internal/config/config.go/parseOptionalDuration(): error while `time.ParseDuration()` calling: %w", err)
	}
	return duration, nil
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("filepath", validateFilePath); err != nil {
		return err
	}

	return validate.Struct(c)
}
