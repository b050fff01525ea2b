// Package utils provides small helpers shared by the front ends: company
// name normalisation and IST time formatting.
package utils

import (
	"strings"
	"unicode"
)

// Common shorthands users type for Indian-listed companies, mapped to the
// name news sites index them under.
var companyAliases = map[string]string{
	"RIL":        "Reliance",
	"RELIANCE":   "Reliance",
	"TCS":        "TCS",
	"INFY":       "Infosys",
	"INFOSYS":    "Infosys",
	"HDFCBANK":   "HDFC Bank",
	"HDFC BANK":  "HDFC Bank",
	"ICICIBANK":  "ICICI Bank",
	"ICICI BANK": "ICICI Bank",
	"SBIN":       "SBI",
	"SBI":        "SBI",
	"BHARTIARTL": "Airtel",
	"AIRTEL":     "Airtel",
	"HINDUNILVR": "HUL",
	"HUL":        "HUL",
	"TATAMOTORS": "Tata Motors",
	"MARUTI":     "Maruti Suzuki",
	"M&M":        "Mahindra",
	"LT":         "L&T",
	"WIPRO":      "Wipro",
}

// NormalizeCompany trims the name, collapses inner whitespace, strips a
// leading "$" and resolves known ticker shorthands. An all-lowercase name
// is title-cased; any other name keeps the caller's casing, so "tesla"
// becomes "Tesla" while "TCS" and "McDonald's" stay as typed.
func NormalizeCompany(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimPrefix(name, "$")
	if canonical, ok := companyAliases[strings.ToUpper(name)]; ok {
		return canonical
	}
	if name == strings.ToLower(name) {
		return titleWords(name)
	}
	return name
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// CompanyKey returns the storage key of a company: the normalised name,
// lowercased, with runs of non-alphanumerics folded into "-".
// "Tata Motors", " tata  motors " and "TATA-MOTORS" share a key.
func CompanyKey(name string) string {
	name = strings.ToLower(NormalizeCompany(name))
	var b strings.Builder
	dash := false
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '&' {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
