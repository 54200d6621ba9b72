package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Extract  ExtractConfig
	Output   OutputConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// URL is "sqlite://<path>", ":memory:" or a postgres:// DSN.
	URL              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string
	MaxRequestBytes int
}

// OCRConfig holds text extraction configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	HeicConverter string
	DPI           int
	MaxPages      int
	LineEnd       string
	Normalize     bool
}

// ExtractConfig holds field extraction configuration
type ExtractConfig struct {
	// PatternsFile is an optional TOML pattern library; empty means built-in.
	PatternsFile string
	// NERCommand is an external recognizer command line; empty means the
	// built-in heuristic.
	NERCommand     string
	// NERHeuristic keeps the built-in heuristic running next to NERCommand.
	NERHeuristic   bool
	VendorLabels   []string
	MaxTokens      int
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// OutputConfig describes where per-file CSV results are written.
type OutputConfig struct {
	Dir string
	// FileTemplate names the output file; "{}" is replaced by the input
	// file name.
	FileTemplate string
}

// FilePlaceholder is substituted with the input file name in OutputConfig.FileTemplate.
const FilePlaceholder = "{}"

// DefaultEnvFile is read by LoadDotEnv when no path is given.
const DefaultEnvFile = ".env"

// LoadDotEnv copies KEY=VALUE pairs from path into the process environment.
// Variables that are already set keep their values. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("read %s", path), fmt.Errorf("%w: %w", ErrConfig, err))
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:              getEnv("DB_URL", "sqlite://invoice-extract.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:        getEnv("GRPC_ADDR", ":8080"),
			MaxRequestBytes: getEnvAsInt("GRPC_MAX_REQUEST_BYTES", 4<<20),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			HeicConverter: getEnv("HEIC_CONVERTER", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			LineEnd:       getEnv("OCR_LINE_END", "\n"),
			Normalize:     getEnvAsBool("OCR_NORMALIZE", false),
		},
		Extract: ExtractConfig{
			PatternsFile:   getEnv("PATTERNS_FILE", ""),
			NERCommand:     getEnv("NER_COMMAND", ""),
			NERHeuristic:   getEnvAsBool("NER_HEURISTIC", false),
			VendorLabels:   getEnvAsList("VENDOR_LABELS", nil),
			MaxTokens:      getEnvAsInt("MAX_TOKENS", 0),
			Workers:        getEnvAsInt("WORKERS", 4),
			QueueSize:      getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 2*time.Minute),
		},
		Output: OutputConfig{
			Dir:          getEnv("OUT_DIR", "output"),
			FileTemplate: getEnv("OUT_FILE", "{}.csv"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrConfig)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrConfig)
	}
	if c.Extract.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("WORKERS must be positive, got %d", c.Extract.Workers), ErrConfig)
	}
	if c.Extract.MaxTokens < 0 {
		return NewAppError("CONFIG_ERROR", "MAX_TOKENS must not be negative", ErrConfig)
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks that the output template names a file per input.
func (o OutputConfig) Validate() error {
	if o.FileTemplate == "" {
		return NewAppError("CONFIG_ERROR", "OUT_FILE is required", ErrConfig)
	}
	if !strings.Contains(o.FileTemplate, FilePlaceholder) {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("OUT_FILE %q must contain %s", o.FileTemplate, FilePlaceholder), ErrConfig)
	}
	if strings.ContainsAny(strings.ReplaceAll(o.FileTemplate, FilePlaceholder, ""), `/\`) {
		return NewAppError("CONFIG_ERROR", "OUT_FILE must be a file name, use OUT_DIR for the directory", ErrConfig)
	}
	return nil
}

// FileName renders the template for an input file name.
func (o OutputConfig) FileName(input string) string {
	return strings.ReplaceAll(o.FileTemplate, FilePlaceholder, input)
}
