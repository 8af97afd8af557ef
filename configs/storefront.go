package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Storefront holds the catalogue and checkout presentation settings.
type Storefront struct {
	DisplayName   string  `yaml:"display_name" json:"display_name"`
	Description   string  `yaml:"description" json:"description"`
	ReportPrice   float64 `yaml:"report_price" json:"report_price"`
	Currency      string  `yaml:"currency" json:"currency"`
	ThemeColor    string  `yaml:"theme_color" json:"theme_color"`
	CollectGender bool    `yaml:"collect_gender" json:"collect_gender"`
	SupportEmail  string  `yaml:"support_email" json:"support_email"`
	Plans         []Plan  `yaml:"plans" json:"plans"`
}

type Plan struct {
	Name        string   `yaml:"name" json:"name"`
	Price       float64  `yaml:"price" json:"price"`
	Description string   `yaml:"description" json:"description"`
	Features    []string `yaml:"features" json:"features"`
	Popular     bool     `yaml:"popular" json:"popular"`
}

func DefaultStorefront() *Storefront {
	return &Storefront{
		DisplayName:  "Vedic Numerology",
		Description:  "Personalized Numerology Report",
		ReportPrice:  199,
		Currency:     "INR",
		ThemeColor:   "#FBBF24",
		SupportEmail: "support@vedicnumbers.com",
		Plans: []Plan{
			{
				Name:        "Complete Report",
				Price:       199,
				Description: "Comprehensive cosmic blueprint",
				Features: []string{
					"Life Path Number Analysis",
					"Destiny Number Calculation",
					"Soul Urge Number Analysis",
					"Personality Number Insights",
					"PDF Report Delivery",
				},
				Popular: true,
			},
		},
	}
}

// LoadStorefront reads a YAML catalogue on top of the defaults. A missing file
// is not an error.
func LoadStorefront(path string) (*Storefront, error) {
	sf := DefaultStorefront()
	if path == "" {
		return sf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sf, nil
		}
		return nil, fmt.Errorf("read storefront config: %w", err)
	}

	if err := yaml.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("parse storefront config: %w", err)
	}
	if err := sf.validate(); err != nil {
		return nil, err
	}
	return sf, nil
}

func (s *Storefront) validate() error {
	if s.ReportPrice <= 0 {
		return fmt.Errorf("storefront: report_price must be positive, got %v", s.ReportPrice)
	}
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if len(s.Currency) != 3 {
		return fmt.Errorf("storefront: currency must be an ISO 4217 code, got %q", s.Currency)
	}
	return nil
}

var (
	storefront   *Storefront
	storefrontMu sync.RWMutex
)

func SetStorefront(sf *Storefront) {
	storefrontMu.Lock()
	defer storefrontMu.Unlock()
	storefront = sf
}

// GetStorefront returns the active catalogue, falling back to the defaults.
func GetStorefront() *Storefront {
	storefrontMu.RLock()
	defer storefrontMu.RUnlock()
	if storefront == nil {
		return DefaultStorefront()
	}
	return storefront
}
