package pricing

import "testing"

func mustDefault(t *testing.T) *Table {
	t.Helper()
	table, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return table
}

func TestCalculateKnownEntry(t *testing.T) {
	est := mustDefault(t).Calculate("Smartphone", "Screen Replacement")
	if est.DeviceType != "smartphone" || est.IssueType != "screen_replacement" {
		t.Fatalf("unexpected keys %+v", est)
	}
	if est.Min != 15000 || est.Max != 60000 || est.Currency != "XAF" {
		t.Fatalf("unexpected range %+v", est)
	}
}

func TestCalculateFallbacks(t *testing.T) {
	table := mustDefault(t)

	issue := table.Calculate("laptop", "coffee spill")
	if issue.DeviceType != "laptop" || issue.IssueType != DefaultKey || issue.Max != 60000 {
		t.Fatalf("unknown issue must use the device default, got %+v", issue)
	}

	device := table.Calculate("drone", "propeller")
	if device.DeviceType != DefaultKey || device.IssueType != DefaultKey || device.Min != 10000 {
		t.Fatalf("unknown device must use the global default, got %+v", device)
	}
}

func TestCalculateDeviceWithoutDefault(t *testing.T) {
	table, err := Parse([]byte(`
currency: eur
devices:
  radio:
    antenna: { min: 5, max: 10 }
  default:
    default: { min: 1, max: 2 }
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	est := table.Calculate("radio", "speaker")
	if est.DeviceType != DefaultKey || est.Min != 1 || est.Max != 2 || est.Currency != "EUR" {
		t.Fatalf("unexpected fallback %+v", est)
	}
}

func TestParseRejectsInvalidTables(t *testing.T) {
	cases := map[string]string{
		"missing default": "currency: XAF\ndevices:\n  tv:\n    default: { min: 1, max: 2 }\n",
		"inverted range":  "currency: XAF\ndevices:\n  default:\n    default: { min: 5, max: 2 }\n",
		"no currency":     "devices:\n  default:\n    default: { min: 1, max: 2 }\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  Battery   Replacement "); got != "battery_replacement" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeKey("charging-port"); got != "charging_port" {
		t.Fatalf("got %q", got)
	}
}
