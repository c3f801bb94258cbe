package entities

// PersonRef identifies a person in calculation output.
type PersonRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Heir is one heir with its legal share, as produced by the calculation engine.
type Heir struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Relationship     string  `json:"relationship"`
	Rank             int     `json:"rank"`
	ShareNumerator   int     `json:"share_numerator"`
	ShareDenominator int     `json:"share_denominator"`
	ShareDecimal     float64 `json:"share_decimal"`
	SharePercentage  float64 `json:"share_percentage"`
}

// CalculationResult is the inheritance engine's answer for a case.
type CalculationResult struct {
	Decedent         PersonRef `json:"decedent"`
	Heirs            []Heir    `json:"heirs"`
	HasSpouse        bool      `json:"has_spouse"`
	HasChildren      bool      `json:"has_children"`
	CalculationBasis []string  `json:"calculation_basis"`
}
