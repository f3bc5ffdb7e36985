package model

// Metadata is best-effort static information about an instrument,
// fetched from the market-data provider. Any field may be missing;
// consumers render absent values as "N/A".
type Metadata struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Sector  string   `json:"sector,omitempty"`
	PERatio *float64 `json:"pe_ratio,omitempty"`
}

// DisplayName returns the long name when known, the symbol otherwise.
func (m Metadata) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Symbol
}
