package gemini

import (
	"encoding/json"
	"strings"

	"github.com/lotscan/lotscan"
)

// visionVehicle mirrors the JSON shape the prompts ask for. Numeric
// fields tolerate strings because models sometimes quote them anyway.
type visionVehicle struct {
	Year        any    `json:"year"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Trim        string `json:"trim"`
	Color       string `json:"color"`
	Price       any    `json:"price"`
	Mileage     any    `json:"mileage"`
	VIN         string `json:"vin"`
	StockNumber string `json:"stock_number"`
}

// ParseVehicleReply parses a model reply into records. The reply may be
// a bare JSON array, an object wrapping a "vehicles" array, or either
// of those inside a code fence or prose. Implausible numeric values are
// zeroed rather than trusted.
func ParseVehicleReply(reply string) []lotscan.VehicleRecord {
	text := StripFences(reply)

	var raw []visionVehicle
	if arr, ok := IsolateJSON(text, '[', ']'); ok {
		if err := json.Unmarshal([]byte(arr), &raw); err != nil {
			raw = nil
		}
	}
	if raw == nil {
		obj, ok := IsolateJSON(text, '{', '}')
		if !ok {
			return nil
		}
		var wrapper struct {
			Vehicles []visionVehicle `json:"vehicles"`
		}
		if err := json.Unmarshal([]byte(obj), &wrapper); err != nil {
			return nil
		}
		raw = wrapper.Vehicles
	}

	var records []lotscan.VehicleRecord
	for _, v := range raw {
		rec := lotscan.VehicleRecord{
			Make:        strings.TrimSpace(v.Make),
			Model:       strings.TrimSpace(v.Model),
			Trim:        strings.TrimSpace(v.Trim),
			Color:       strings.TrimSpace(v.Color),
			StockNumber: strings.TrimSpace(v.StockNumber),
		}

		if y := int(numeric(v.Year)); y >= lotscan.MinListingYear && y <= lotscan.MaxListingYear {
			rec.Year = y
		}
		if p := numeric(v.Price); p > 0 {
			rec.Price = p
		}
		if m := int(numeric(v.Mileage)); m >= lotscan.MinPlausibleMileage && m <= lotscan.MaxPlausibleMileage {
			rec.Mileage = m
		}
		if vin := strings.ToUpper(strings.TrimSpace(v.VIN)); lotscan.ValidVIN(vin) {
			rec.VIN = vin
		}

		if (rec.Year != 0 && rec.Make != "") || rec.VIN != "" {
			records = append(records, rec)
		}
	}
	return records
}

// ParseSelectorReply parses a selector-learning reply into a pattern.
func ParseSelectorReply(reply string) (*lotscan.SelectorPattern, error) {
	obj, ok := IsolateJSON(StripFences(reply), '{', '}')
	if !ok {
		return nil, lotscan.Errorf(lotscan.EINTERNAL, "no JSON object in selector reply")
	}

	var pattern lotscan.SelectorPattern
	if err := json.Unmarshal([]byte(obj), &pattern); err != nil {
		return nil, lotscan.Errorf(lotscan.EINTERNAL, "malformed selector reply: %v", err)
	}
	if strings.TrimSpace(pattern.Container) == "" {
		return nil, lotscan.Errorf(lotscan.EINTERNAL, "selector reply missing container")
	}
	for k, v := range pattern.Fields {
		if strings.TrimSpace(v) == "" {
			delete(pattern.Fields, k)
		}
	}
	return &pattern, nil
}

// StripFences removes markdown code fences around a reply, including an
// optional language tag on the opening fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// IsolateJSON returns the first balanced open..close span in text that
// is valid JSON, respecting string literals and escapes. Spans that
// balance but do not parse are skipped so prose brackets before the
// payload do not end the search.
func IsolateJSON(text string, open, close byte) (string, bool) {
	for offset := 0; offset < len(text); {
		idx := strings.IndexByte(text[offset:], open)
		if idx < 0 {
			return "", false
		}
		start := offset + idx
		if candidate, ok := balancedSpan(text, start, open, close); ok {
			return candidate, true
		}
		offset = start + 1
	}
	return "", false
}

func balancedSpan(text string, start int, open, close byte) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

// numeric coerces a JSON value that should be a number but may be a
// string with formatting noise.
func numeric(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if n, ok := lotscan.NumericValue(t); ok {
			return n
		}
	}
	return 0
}
