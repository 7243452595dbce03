package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Canonical small-form units.
const (
	UnitGram       = "g"
	UnitMilliliter = "ml"
)

var (
	reKgInName    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*kg`)
	reCartonPack  = regexp.MustCompile(`(thùng|lốc)\s*(\d+).*?(\d+(?:\.\d+)?)\s*(g|ml)`)
	reComboPrefix = regexp.MustCompile(`(\d+)\s*[x×*]\s*(\d+(?:\.\d+)?)\s*(ml|g|kg|l|lít)`)
	reComboSuffix = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(ml|g|kg|l|lít)\s*[x×*]\s*(\d+)`)
	reReversePack = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(g|ml|lít|kg|l)[^\d]*(?:lốc|thùng|combo|set|chai|lon|hũ)?\s*(\d+)`)
	reTrailing    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(g|ml|lít|kg|gói|l)\b`)
)

// quantityInput is what every rule in the table sees: the vendor unit and
// net value plus the lowercased display name.
type quantityInput struct {
	unit  string
	value float64
	name  string
}

// quantityRule is one predicate+transform entry. Apply returns the
// canonical value and unit, or ok=false when the rule does not match.
type quantityRule struct {
	name  string
	apply func(in quantityInput) (float64, string, bool)
}

// quantityRules is evaluated in order; the first matching rule wins.
// Name-embedded signals outrank the vendor's structured fields, which are
// frequently inconsistent or missing.
var quantityRules = []quantityRule{
	{name: "large_unit_rescale", apply: largeUnitRescale},
	{name: "kg_in_name", apply: kgInName},
	{name: "one_kg_bag", apply: oneKgBag},
	{name: "fruit_bag", apply: fruitBag},
	{name: "egg_count", apply: eggCount},
	{name: "carton_pack", apply: cartonPack},
	{name: "reverse_pack", apply: reversePack},
	{name: "name_extract", apply: nameExtract},
}

// NormalizeNetValue canonicalizes a vendor (unit, netUnitValue, name)
// triple into a positive quantity and a canonical unit token. The result
// is always > 0; unparseable quantities fall back to 1.
func NormalizeNetValue(unit string, netValue float64, name string) (float64, string) {
	in := quantityInput{
		unit:  strings.ToLower(strings.TrimSpace(unit)),
		value: netValue,
		name:  strings.ToLower(name),
	}
	for _, rule := range quantityRules {
		if value, u, ok := rule.apply(in); ok {
			return value, u
		}
	}
	if in.value > 0 {
		return in.value, in.unit
	}
	return 1, in.unit
}

// largeUnitRescale rewrites kilogram and liter quantities to gram and
// milliliter.
func largeUnitRescale(in quantityInput) (float64, string, bool) {
	if in.value <= 0 {
		return 0, "", false
	}
	switch in.unit {
	case "kg":
		return in.value * 1000, UnitGram, true
	case "lít", "l":
		return in.value * 1000, UnitMilliliter, true
	}
	return 0, "", false
}

// kgInName handles unrecognized unit tokens whose display name carries an
// explicit "<number> kg"; the embedded value wins, the unit token stays.
func kgInName(in quantityInput) (float64, string, bool) {
	switch in.unit {
	case "kg", "g", "ml", "lít", "l":
		return 0, "", false
	}
	m := reKgInName.FindStringSubmatch(in.name)
	if m == nil {
		return 0, "", false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return value * 1000, in.unit, true
}

// oneKgBag handles the vendor's literal "túi 1kg" unit token.
func oneKgBag(in quantityInput) (float64, string, bool) {
	if in.unit != "túi 1kg" || in.value <= 0 {
		return 0, "", false
	}
	return in.value * 1000, "túi", true
}

// fruitBag assumes 0.7 kg for a bag of fruit, since the vendor reports no
// usable quantity for these.
func fruitBag(in quantityInput) (float64, string, bool) {
	if in.unit != "túi" || !strings.Contains(in.name, "trái") {
		return 0, "", false
	}
	return 700, in.unit, true
}

// eggCount sums the counted numbers of a box/tray of eggs
// ("hộp 10 quả", "vỉ 6 quả + vỉ 4 quả").
func eggCount(in quantityInput) (float64, string, bool) {
	if in.unit != "hộp" && in.unit != "vỉ" {
		return 0, "", false
	}
	if !strings.Contains(in.name, "quả") {
		return 0, "", false
	}
	re := regexp.MustCompile(regexp.QuoteMeta(in.unit) + `\s*(\d+)`)
	matches := re.FindAllStringSubmatch(in.name, -1)
	if len(matches) == 0 {
		return 0, "", false
	}
	total := 0.0
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		total += float64(n)
	}
	return total, in.unit, true
}

// cartonPack handles "thùng 24 lon 330ml" style names: N items of Y each.
func cartonPack(in quantityInput) (float64, string, bool) {
	m := reCartonPack.FindStringSubmatch(in.name)
	if m == nil {
		return 0, "", false
	}
	count, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, "", false
	}
	perItem, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, "", false
	}
	return float64(count) * perItem, in.unit, true
}

// reversePack handles "330ml lốc 6" style names where the per-item size
// precedes the packaging word and count.
func reversePack(in quantityInput) (float64, string, bool) {
	m := reReversePack.FindStringSubmatch(in.name)
	if m == nil {
		return 0, "", false
	}
	perUnit, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	count, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, "", false
	}
	return rescale(perUnit*float64(count), m[2])
}

// nameExtract is the last name-based resort: an "N x Y unit" combo or any
// trailing "<number> <unit>" token in the name.
func nameExtract(in quantityInput) (float64, string, bool) {
	if m := reComboPrefix.FindStringSubmatch(in.name); m != nil {
		count, err1 := strconv.Atoi(m[1])
		value, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return rescale(float64(count)*value, m[3])
		}
	}
	if m := reComboSuffix.FindStringSubmatch(in.name); m != nil {
		value, err1 := strconv.ParseFloat(m[1], 64)
		count, err2 := strconv.Atoi(m[3])
		if err1 == nil && err2 == nil {
			return rescale(value*float64(count), m[2])
		}
	}
	matches := reTrailing.FindAllStringSubmatch(in.name, -1)
	if len(matches) == 0 {
		return 0, "", false
	}
	last := matches[len(matches)-1]
	value, err := strconv.ParseFloat(last[1], 64)
	if err != nil || value <= 0 {
		return 0, "", false
	}
	return value, last[2], true
}

func rescale(value float64, unit string) (float64, string, bool) {
	if value <= 0 {
		return 0, "", false
	}
	switch unit {
	case "kg":
		return value * 1000, UnitGram, true
	case "l", "lít":
		return value * 1000, UnitMilliliter, true
	}
	return value, unit, true
}
