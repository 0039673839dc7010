package job

import "strings"

// Posting is a normalized job posting. Empty fields mean the information was
// not present in the source text; parsers must not invent values.
type Posting struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Requirements []string `json:"requirements"`
	Keywords     []string `json:"keywords"`
	Description  string   `json:"description"`
	RawText      string   `json:"-"`
}

// Label returns a short human-readable identifier for logs and filenames.
func (p *Posting) Label() string {
	parts := make([]string, 0, 2)
	if strings.TrimSpace(p.Company) != "" {
		parts = append(parts, strings.TrimSpace(p.Company))
	}
	if strings.TrimSpace(p.Title) != "" {
		parts = append(parts, strings.TrimSpace(p.Title))
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " / ")
}
