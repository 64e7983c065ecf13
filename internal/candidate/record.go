package candidate

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Record holds the values collected so far. Every field from Fields is present.
type Record map[Field]string

// Profile is the typed view of a completed record.
type Profile struct {
	FullName         string `mapstructure:"full_name" json:"full_name"`
	DesiredPositions string `mapstructure:"desired_positions" json:"desired_positions"`
	Email            string `mapstructure:"email" json:"email"`
	Phone            string `mapstructure:"phone" json:"phone"`
	YearsExperience  string `mapstructure:"years_experience" json:"years_experience"`
	Location         string `mapstructure:"location" json:"location"`
	TechStack        string `mapstructure:"tech_stack" json:"tech_stack"`
}

// NewRecord returns a record with all fields empty.
func NewRecord() Record {
	r := make(Record, len(Fields))
	for _, f := range Fields {
		r[f] = ""
	}
	return r
}

// Filled reports whether the trimmed value of the field is non-empty.
func (r Record) Filled(f Field) bool {
	return strings.TrimSpace(r[f]) != ""
}

// Complete reports whether every field is filled.
func (r Record) Complete() bool {
	for _, f := range Fields {
		if !r.Filled(f) {
			return false
		}
	}
	return true
}

// NextUnfilled returns the index of the first unfilled field at or after start.
// The second value is false when every remaining field is filled.
func (r Record) NextUnfilled(start int) (int, bool) {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(Fields); i++ {
		if !r.Filled(Fields[i]) {
			return i, true
		}
	}
	return 0, false
}

// Missing lists unfilled fields in collection order.
func (r Record) Missing() []Field {
	missing := make([]Field, 0)
	for _, f := range Fields {
		if !r.Filled(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Profile decodes the record into its typed form.
func (r Record) Profile() (*Profile, error) {
	raw := make(map[string]string, len(r))
	for f, v := range r {
		raw[string(f)] = strings.TrimSpace(v)
	}

	var p Profile
	if err := mapstructure.Decode(raw, &p); err != nil {
		return nil, fmt.Errorf("decode candidate profile: %w", err)
	}
	return &p, nil
}

// DumpToTmpFile writes the profile as indented JSON to a new temp file and
// returns its name.
func (p *Profile) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidate_profile_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}
