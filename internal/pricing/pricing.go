// Package pricing looks up repair cost ranges in the static pricing table.
package pricing

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the fallback entry at both table levels.
const DefaultKey = "default"

//go:embed table.yaml
var tableYAML []byte

// Range is a cost range in whole currency units.
type Range struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// Estimate is the result of a lookup. DeviceType and IssueType are the keys
// that actually matched, which may be the default entries.
type Estimate struct {
	DeviceType string
	IssueType  string
	Min        int64
	Max        int64
	Currency   string
}

// Table is the immutable pricing matrix.
type Table struct {
	currency string
	devices  map[string]map[string]Range
}

type tableFile struct {
	Currency string                      `yaml:"currency"`
	Devices  map[string]map[string]Range `yaml:"devices"`
}

// Default parses the embedded table.
func Default() (*Table, error) {
	return Parse(tableYAML)
}

// Parse decodes a YAML pricing table. The table must carry a default device
// with a default issue, and every range must satisfy 0 <= min <= max.
func Parse(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricing table: %w", err)
	}
	if strings.TrimSpace(file.Currency) == "" {
		return nil, errors.New("pricing table: currency is required")
	}

	devices := make(map[string]map[string]Range, len(file.Devices))
	for device, issues := range file.Devices {
		normalizedIssues := make(map[string]Range, len(issues))
		for issue, r := range issues {
			if r.Min < 0 || r.Max < r.Min {
				return nil, fmt.Errorf("pricing table: invalid range for %s/%s", device, issue)
			}
			normalizedIssues[NormalizeKey(issue)] = r
		}
		devices[NormalizeKey(device)] = normalizedIssues
	}
	if _, ok := devices[DefaultKey][DefaultKey]; !ok {
		return nil, errors.New("pricing table: default/default entry is required")
	}

	return &Table{currency: strings.ToUpper(file.Currency), devices: devices}, nil
}

// NormalizeKey lowercases, trims and replaces inner spaces and dashes with
// underscores, so "Screen Replacement" matches screen_replacement.
func NormalizeKey(value string) string {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.Join(strings.Fields(key), "_")
	return strings.ReplaceAll(key, "-", "_")
}

// Currency returns the table's currency code.
func (t *Table) Currency() string {
	return t.currency
}

// Calculate returns the cost range for the device and issue. An unknown
// device falls back to the default device, an unknown issue to the device's
// default issue, and finally to the default device's default issue.
func (t *Table) Calculate(deviceType, issueType string) Estimate {
	deviceKey := NormalizeKey(deviceType)
	issues, ok := t.devices[deviceKey]
	if !ok {
		deviceKey = DefaultKey
		issues = t.devices[DefaultKey]
	}

	issueKey := NormalizeKey(issueType)
	r, ok := issues[issueKey]
	if !ok {
		issueKey = DefaultKey
		r, ok = issues[DefaultKey]
	}
	if !ok {
		deviceKey = DefaultKey
		r = t.devices[DefaultKey][DefaultKey]
	}

	return Estimate{
		DeviceType: deviceKey,
		IssueType:  issueKey,
		Min:        r.Min,
		Max:        r.Max,
		Currency:   t.currency,
	}
}
