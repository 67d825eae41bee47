package payment

import "testing"

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"100.00", "100.00", false},
		{"100", "100.00", false},
		{"100.5", "100.50", false},
		{"0.00", "0.00", false},
		{"", "0.00", false},
		{"100.555", "", true},
		{"-5.00", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeAmount(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeAmount(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		amount  string
		percent int
		want    string
		wantErr bool
	}{
		{"100.00", 20, "80.00", false},
		{"100.00", 0, "100.00", false},
		{"100.00", 100, "0.00", false},
		{"0.99", 50, "0.49", false}, // rounds down to the cent
		{"33.33", 10, "29.99", false},
		{"100.00", -1, "", true},
		{"100.00", 101, "", true},
		{"nonsense", 20, "", true},
	}

	for _, tt := range tests {
		got, err := ApplyDiscount(tt.amount, tt.percent)
		if (err != nil) != tt.wantErr {
			t.Errorf("ApplyDiscount(%q, %d) err = %v, wantErr %v", tt.amount, tt.percent, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ApplyDiscount(%q, %d) = %q, want %q", tt.amount, tt.percent, got, tt.want)
		}
	}
}
