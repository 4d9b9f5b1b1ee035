// pkg/config/features.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Review policies accepted in the features file
const (
	ReviewPolicyPerRow   = "per_row"
	ReviewPolicyPerOrder = "per_order"
)

// FeatureConfig holds the feature engine options read from FEATURES_CONFIG
type FeatureConfig struct {
	Order  OrderFeatureConfig  `yaml:"order"`
	Seller SellerFeatureConfig `yaml:"seller"`
}

// OrderFeatureConfig configures the order feature engine
type OrderFeatureConfig struct {
	DeliveredOnly bool `yaml:"delivered_only"`
	WithDistance  bool `yaml:"with_distance"`
}

// SellerFeatureConfig configures the seller feature engine
type SellerFeatureConfig struct {
	ReviewPolicy string          `yaml:"review_policy"`
	CostModel    CostModelConfig `yaml:"cost_model"`
}

// CostModelConfig holds the revenue and review cost constants
type CostModelConfig struct {
	CommissionRate float64         `yaml:"commission_rate"`
	MonthlyFee     float64         `yaml:"monthly_fee"`
	StarCosts      map[int]float64 `yaml:"star_costs"`
}

// DefaultFeatureConfig returns the options used when no features file is given
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		Order: OrderFeatureConfig{
			DeliveredOnly: true,
			WithDistance:  true,
		},
		Seller: SellerFeatureConfig{
			ReviewPolicy: ReviewPolicyPerRow,
			CostModel: CostModelConfig{
				CommissionRate: 0.10,
				MonthlyFee:     80,
				StarCosts:      map[int]float64{1: 100, 2: 50, 3: 40, 4: 0, 5: 0},
			},
		},
	}
}

// LoadFeatureConfig reads a YAML features file over the defaults. Keys absent
// from the file keep their default values. An empty path returns the defaults.
func LoadFeatureConfig(path string) (*FeatureConfig, error) {
	cfg := DefaultFeatureConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read features file: %w", err)
	}

	defaults := cfg.Seller.CostModel.StarCosts
	cfg.Seller.CostModel.StarCosts = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse features file %s: %w", path, err)
	}

	if cfg.Seller.CostModel.StarCosts == nil {
		cfg.Seller.CostModel.StarCosts = make(map[int]float64, len(defaults))
	}
	for star, cost := range defaults {
		if _, ok := cfg.Seller.CostModel.StarCosts[star]; !ok {
			cfg.Seller.CostModel.StarCosts[star] = cost
		}
	}

	return cfg, nil
}

// Validate checks the feature options for values the engines cannot use
func (f *FeatureConfig) Validate() error {
	if f == nil {
		return nil
	}

	switch f.Seller.ReviewPolicy {
	case ReviewPolicyPerRow, ReviewPolicyPerOrder:
	default:
		return fmt.Errorf("unknown review policy %q", f.Seller.ReviewPolicy)
	}

	cm := f.Seller.CostModel
	if cm.CommissionRate < 0 || cm.MonthlyFee < 0 {
		return fmt.Errorf("commission rate and monthly fee cannot be negative")
	}
	for star, cost := range cm.StarCosts {
		if star < 1 || star > 5 {
			return fmt.Errorf("star cost for invalid score %d", star)
		}
		if cost < 0 {
			return fmt.Errorf("star cost for score %d cannot be negative", star)
		}
	}

	return nil
}
