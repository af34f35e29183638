// Package config loads screenwatch settings from the environment, an
// optional .env file and an optional TOML regions file.
package config

import (
	"errors"
	"image"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/joho/godotenv"
)

// OCR engine names.
const (
	EngineGRPC      = "grpc"
	EngineTesseract = "tesseract"
)

// OCR gate modes. Values match the features gate modes.
const (
	GateOff        = "off"
	GateExact      = "exact"
	GatePerceptual = "phash"
)

// Click source names.
const (
	ClickSourceHook  = "hook"
	ClickSourceStdin = "stdin"
)

// Config is built once at startup and not modified afterwards.
type Config struct {
	LogLevel string

	// Click-triggered monitoring
	ClickSource       string
	ClicksPerShot     int
	RedPixelThreshold int
	ChangeThreshold   float64
	RedROI            *image.Rectangle
	CaptureRegion     frame.Region
	ScreenshotDir     string
	CaptureLog        string

	// Dual-region arbitrage monitoring
	PollInterval   time.Duration
	FeeRate        float64
	MinProfit      float64
	Source         frame.Region
	Destination    frame.Region
	OpportunityLog string
	RegionsFile    string

	// Recognition
	OCREngine       string
	OCRAddr         string
	OCRTimeout      time.Duration
	OCRGate         string
	OCRHashDistance int
	OCRLanguages    []string

	// Sinks and archives
	SinkURL      string
	SinkTimeout  time.Duration
	RedisAddr    string
	RedisChannel string
	PostgresDSN  string
	S3Bucket     string
	S3Prefix     string

	// Relay
	HTTPAddr     string
	RelayHistory int
}

// Load reads .env (if present), the environment and REGIONS_FILE.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "read .env")
	}

	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ClickSource:       getEnv("CLICK_SOURCE", ClickSourceHook),
		ClicksPerShot:     getEnvInt("CLICKS_PER_SHOT", 2),
		RedPixelThreshold: getEnvInt("RED_PIXEL_THRESHOLD", 500),
		ChangeThreshold:   getEnvFloat("CHANGE_THRESHOLD", 0.02),
		CaptureRegion:     frame.FullScreenRegion("screen"),
		ScreenshotDir:     getEnv("SCREENSHOT_DIR", "screenshots"),
		CaptureLog:        getEnv("CAPTURE_LOG", "capture_log.csv"),

		PollInterval:   getEnvDuration("POLL_INTERVAL", 2*time.Second),
		FeeRate:        getEnvFloat("FEE_RATE", 0.05),
		MinProfit:      getEnvFloat("MIN_PROFIT", 50),
		OpportunityLog: getEnv("OPPORTUNITY_LOG", "opportunities.jsonl"),
		RegionsFile:    getEnv("REGIONS_FILE", ""),

		OCREngine:       getEnv("OCR_ENGINE", EngineGRPC),
		OCRAddr:         getEnv("OCR_ADDR", "localhost:50051"),
		OCRTimeout:      getEnvDuration("OCR_TIMEOUT", 10*time.Second),
		OCRGate:         getEnv("OCR_GATE", GateExact),
		OCRHashDistance: getEnvInt("OCR_HASH_DISTANCE", 0),
		OCRLanguages:    getEnvList("OCR_LANGUAGES", []string{"eng"}),

		SinkURL:      getEnv("SINK_URL", ""),
		SinkTimeout:  getEnvDuration("SINK_TIMEOUT", 5*time.Second),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisChannel: getEnv("REDIS_CHANNEL", "screenwatch"),
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		S3Prefix:     getEnv("S3_PREFIX", "screenshots/"),

		HTTPAddr:     getEnv("HTTP_ADDR", ":4000"),
		RelayHistory: getEnvInt("RELAY_HISTORY", 50),
	}

	if v := os.Getenv("CAPTURE_REGION"); v != "" {
		r, err := parseRect("CAPTURE_REGION", v)
		if err != nil {
			return nil, err
		}
		cfg.CaptureRegion = frame.Region{ID: "screen", X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
	}
	if v := os.Getenv("RED_ROI"); v != "" {
		r, err := parseRect("RED_ROI", v)
		if err != nil {
			return nil, err
		}
		cfg.RedROI = &r
	}
	if cfg.RegionsFile != "" {
		if err := cfg.loadRegions(cfg.RegionsFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// parseRect reads "x,y,w,h".
func parseRect(key, v string) (image.Rectangle, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, apperrors.Newf(apperrors.CodeConfigInvalid, "%s must be x,y,w,h", key).WithMetadata("value", v)
	}
	var n [4]int
	for i, p := range parts {
		x, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, apperrors.Wrapf(err, apperrors.CodeConfigInvalid, "%s must be x,y,w,h", key).WithMetadata("value", v)
		}
		n[i] = x
	}
	if n[2] <= 0 || n[3] <= 0 {
		return image.Rectangle{}, apperrors.Newf(apperrors.CodeConfigInvalid, "%s width and height must be positive", key).WithMetadata("value", v)
	}
	return image.Rect(n[0], n[1], n[0]+n[2], n[1]+n[3]), nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
