package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds everything the service reads from the environment.
type AppConfig struct {
	// DeviceListingURL is the remote device-directory endpoint.
	DeviceListingURL string `validate:"required,url"`

	// MeasurementURLTemplate is the per-device latest-measurement endpoint
	// with a %s placeholder for the device id.
	MeasurementURLTemplate string `validate:"required,contains=%s"`

	// RendererURL is the external HTML-to-image rendering service.
	RendererURL string `validate:"required,url"`

	// StylesheetPath is the comparison stylesheet inlined before rendering.
	StylesheetPath string `validate:"required"`

	// RefreshInterval controls how often the directory re-fetches devices.
	RefreshInterval time.Duration `validate:"gt=0"`

	// RefreshMaxRetries bounds retry attempts within one refresh.
	RefreshMaxRetries int `validate:"gte=1"`

	ListingTimeout     time.Duration `validate:"gt=0"`
	MeasurementTimeout time.Duration `validate:"gt=0"`
	RenderTimeout      time.Duration `validate:"gt=0"`

	RenderWidth  int `validate:"gt=0"`
	RenderHeight int `validate:"gt=0"`

	Port string `validate:"required"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		DeviceListingURL:       getenvDefault("DEVICE_LISTING_URL", "https://climatenet.am/device_inner/list/"),
		MeasurementURLTemplate: getenvDefault("MEASUREMENT_URL_TEMPLATE", "https://climatenet.am/device_inner/%s/latest/"),
		RendererURL:            getenvDefault("RENDERER_URL", "http://localhost:3000/render"),
		StylesheetPath:         getenvDefault("COMPARISON_CSS_PATH", "assets/comparison.css"),
		RefreshMaxRetries:      getenvInt("REFRESH_MAX_RETRIES", 3),
		RenderWidth:            getenvInt("RENDER_WIDTH", 1000),
		RenderHeight:           getenvInt("RENDER_HEIGHT", 800),
		Port:                   getenvDefault("PORT", "8080"),
	}

	var err error
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}
	if cfg.ListingTimeout, err = getenvDuration("LISTING_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.MeasurementTimeout, err = getenvDuration("MEASUREMENT_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RenderTimeout, err = getenvDuration("RENDER_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
