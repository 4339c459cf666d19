package market

import "fmt"

// Aggregation rules for numeric metrics.
const (
	RuleSum  = "sum"
	RuleMean = "mean"
)

// Config controls the market profile assigner.
type Config struct {
	// ClassMap translates source tariff class codes into profile classes
	// (residential, commercial, industrial, rural, public). Unknown codes
	// fall into "other".
	ClassMap map[string]string `json:"class_map"`

	// ConsumptionRule aggregates consumer AnnualKWh per territory: sum or
	// mean.
	ConsumptionRule string `json:"consumption_rule"`
	// CapacityRule aggregates DG installed kW per territory: sum or mean.
	CapacityRule string `json:"capacity_rule"`

	// Criticality thresholds on aggregated DG capacity, exclusive bounds.
	CriticalityMediumKW float64 `json:"criticality_medium_kw"`
	CriticalityHighKW   float64 `json:"criticality_high_kw"`
}

// DefaultClassMap is the tariff-code mapping of the Brazilian distribution
// datasets the engine was built around.
func DefaultClassMap() map[string]string {
	return map[string]string{
		"RE": "residential",
		"CO": "commercial",
		"IN": "industrial",
		"RU": "rural",
		"PP": "public",
		"SP": "public",
		"PO": "public",
	}
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.ClassMap == nil {
		c.ClassMap = DefaultClassMap()
	}
	if c.ConsumptionRule == "" {
		c.ConsumptionRule = RuleSum
	}
	if c.CapacityRule == "" {
		c.CapacityRule = RuleSum
	}
	if c.CriticalityMediumKW == 0 {
		c.CriticalityMediumKW = 1000
	}
	if c.CriticalityHighKW == 0 {
		c.CriticalityHighKW = 5000
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.ConsumptionRule {
	case RuleSum, RuleMean:
	default:
		return fmt.Errorf("consumption_rule must be %q or %q", RuleSum, RuleMean)
	}
	switch c.CapacityRule {
	case RuleSum, RuleMean:
	default:
		return fmt.Errorf("capacity_rule must be %q or %q", RuleSum, RuleMean)
	}
	if c.CriticalityMediumKW < 0 || c.CriticalityHighKW < 0 {
		return fmt.Errorf("criticality thresholds must not be negative")
	}
	if c.CriticalityHighKW < c.CriticalityMediumKW {
		return fmt.Errorf("criticality_high_kw must not be below criticality_medium_kw")
	}
	return nil
}
