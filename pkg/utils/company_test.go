package utils

import "testing"

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Tesla", "Tesla"},
		{"  Tata   Motors ", "Tata Motors"},
		{"RIL", "Reliance"},
		{"ril", "Reliance"},
		{"$INFY", "Infosys"},
		{"hdfc bank", "HDFC Bank"},
		{"airtel", "Airtel"},
		{" tesla ", "Tesla"},
		{"tata  steel", "Tata Steel"},
		{"TESLA", "TESLA"},
		{"McDonald's", "McDonald's"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeCompany(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeCompany(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCompanyKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Tata Motors", "tata-motors"},
		{" tata  motors ", "tata-motors"},
		{"TATA-MOTORS", "tata-motors"},
		{"TATAMOTORS", "tata-motors"},
		{"L&T", "l&t"},
		{"Apple, Inc.", "apple-inc"},
		{"टाटा मोटर्स", "टाटा-मोटर्स"},
		{"...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := CompanyKey(tt.input)
			if result != tt.expected {
				t.Errorf("CompanyKey(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
