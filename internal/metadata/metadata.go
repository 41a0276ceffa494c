package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dta-labs/create-dta/internal/branding"
)

// timeLayout renders UTC timestamps with millisecond precision and a Z
// suffix, e.g. 2026-10-17T09:30:00.000Z.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is the persisted project metadata.
type Record struct {
	Features     []string `json:"features"`
	BaseTemplate string   `json:"baseTemplate"`
	CreatedAt    string   `json:"createdAt"`
	CLIVersion   string   `json:"cliVersion"`
}

// New builds a record. A nil features slice is stored as an empty list.
func New(features []string, baseTemplate, cliVersion string, createdAt time.Time) *Record {
	f := make([]string, len(features))
	copy(f, features)
	return &Record{
		Features:     f,
		BaseTemplate: baseTemplate,
		CreatedAt:    createdAt.UTC().Format(timeLayout),
		CLIVersion:   cliVersion,
	}
}

// Path returns the location of the record inside projectDir.
func Path(projectDir string) string {
	return filepath.Join(projectDir, branding.MetadataFile())
}

// Created parses the CreatedAt timestamp.
func (r *Record) Created() (time.Time, error) {
	return time.Parse(time.RFC3339, r.CreatedAt)
}

// Marshal encodes the record with two-space indentation and a trailing
// newline, after validating it against the schema.
func (r *Record) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	data = append(data, '\n')

	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("metadata record is invalid: %s", result)
	}
	return data, nil
}

// Write validates the record and writes it into projectDir.
func Write(projectDir string, r *Record) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(Path(projectDir), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", branding.MetadataFile(), err)
	}
	return nil
}

// Read loads the record from projectDir. Schema violations are returned in
// the ValidationResult; the error is for I/O and decoding failures.
func Read(projectDir string) (*Record, *ValidationResult, error) {
	data, err := os.ReadFile(Path(projectDir))
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", branding.MetadataFile(), err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, nil, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, result, fmt.Errorf("decoding %s: %w", branding.MetadataFile(), err)
	}
	return &r, result, nil
}
