// Package profile loads and validates the candidate profile used to steer
// job matching.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Candidate describes the person jobs are matched against. Summary is the
// free-text the matching prompts consume; the structured fields refine it.
type Candidate struct {
	Summary         string   `json:"summary" validate:"required,min=10"`
	Skills          []string `json:"skills,omitempty"`
	YearsExperience int      `json:"years_experience,omitempty" validate:"gte=0,lte=60"`
	Locations       []string `json:"locations,omitempty"`
	RemoteOnly      bool     `json:"remote_only,omitempty"`
	NeedsVisa       bool     `json:"needs_visa,omitempty"`
	SalaryFloor     string   `json:"salary_floor,omitempty"`
}

// Validate validates the candidate profile using the validator.
func (c *Candidate) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// IsEmpty reports whether the profile carries no usable information.
func (c *Candidate) IsEmpty() bool {
	return c == nil || (strings.TrimSpace(c.Summary) == "" && len(c.Skills) == 0)
}

// PromptText renders the profile as the plain-text block the matching
// prompts expect.
func (c *Candidate) PromptText() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(c.Summary))

	if len(c.Skills) > 0 {
		sb.WriteString("\nSkills: " + strings.Join(c.Skills, ", "))
	}
	if c.YearsExperience > 0 {
		fmt.Fprintf(&sb, "\nYears of experience: %d", c.YearsExperience)
	}
	if len(c.Locations) > 0 {
		sb.WriteString("\nPreferred locations: " + strings.Join(c.Locations, ", "))
	}
	if c.RemoteOnly {
		sb.WriteString("\nRemote only.")
	}
	if c.NeedsVisa {
		sb.WriteString("\nRequires visa sponsorship.")
	}
	if c.SalaryFloor != "" {
		sb.WriteString("\nMinimum salary: " + c.SalaryFloor)
	}
	return sb.String()
}

// Load reads and validates a candidate profile from a JSON file.
func Load(path string) (*Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate file: %w", err)
	}

	var c Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse candidate file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candidate profile: %w", err)
	}
	return &c, nil
}
