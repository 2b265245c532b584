package dataset

import (
	"regexp"
	"strconv"
	"strings"
)

// parseNumeric parses a cell honoring the configured separators. With a zero
// DecimalSeparator the decimal mark is guessed per value: the last of ',' and '.' wins.
func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	seps := []rune{thou}
	if thou == 0 {
		seps = []rune{',', '.', ' '}
	}
	for _, sep := range seps {
		if sep == dec {
			continue
		}
		if !grouped(raw, sep, dec) {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(sep), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// grouped reports whether every sep in the integer part of raw splits off
// exactly three digits, so "1.234" groups while the date "1.9.2023" does not.
func grouped(raw string, sep, dec rune) bool {
	intPart := raw
	if i := strings.IndexRune(raw, dec); i >= 0 {
		intPart = raw[:i]
	}
	if strings.ContainsRune(raw[len(intPart):], sep) {
		return false
	}
	parts := strings.Split(intPart, string(sep))
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// DefaultUnitTargets converts common lab units into a single target unit.
func DefaultUnitTargets() map[string]string {
	return map[string]string{
		"g/L":  "mg/L",
		"ug/L": "mg/L",
		"°F":   "°C",
	}
}

func normalizeUnit(x float64, unit string, targets map[string]string) (float64, string, bool) {
	target, ok := targets[unit]
	if !ok {
		return x, unit, false
	}
	switch unit + ">" + target {
	case "g/L>mg/L":
		return x * 1000, target, true
	case "ug/L>mg/L":
		return x / 1000, target, true
	case "°F>°C":
		return (x - 32) * 5.0 / 9.0, target, true
	default:
		return x, unit, false
	}
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // Alpha (%)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // Mass [mg/L]
	regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`),
}

// splitUnits separates a trailing unit annotation from a header name.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[2])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
