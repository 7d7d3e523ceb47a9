package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
)

// defaultTaxRate applies when TAX_RATE is unset.
const defaultTaxRate = "0.12"

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	DocumentsBaseURL  string
	NotifyBaseURL     string
	FileStoreBaseURL  string
	InvoiceTermsDays  int
	TaxRate           decimal.Decimal
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		DocumentsBaseURL:  strings.TrimSpace(os.Getenv("DOCUMENTS_BASE_URL")),
		NotifyBaseURL:     strings.TrimSpace(os.Getenv("NOTIFY_BASE_URL")),
		FileStoreBaseURL:  strings.TrimSpace(os.Getenv("FILESTORE_BASE_URL")),
		InvoiceTermsDays:  30,
	}
	if raw := strings.TrimSpace(os.Getenv("INVOICE_TERMS_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return Config{}, fmt.Errorf("INVOICE_TERMS_DAYS must be a positive integer")
		}
		cfg.InvoiceTermsDays = days
	}
	rate, err := decimal.NewFromString(envDefault("TAX_RATE", defaultTaxRate))
	if err != nil || rate.IsNegative() {
		return Config{}, fmt.Errorf("TAX_RATE must be a non-negative decimal")
	}
	cfg.TaxRate = rate
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
