package dto

// GeneratedCode is one compiled scan code in the generation response.
type GeneratedCode struct {
	ID         string   `json:"id"`
	Token      string   `json:"token"`
	PhotoType  string   `json:"photoType"`
	StudentIDs []string `json:"studentIds"`
	ImageURL   string   `json:"imageUrl"`
}

// GenerateCodesResult summarises a code generation run.
type GenerateCodesResult struct {
	EventID   string          `json:"eventId"`
	Generated int             `json:"generated"`
	Codes     []GeneratedCode `json:"codes"`
}
