package types

import "testing"

func TestParseCPF(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CPF
		wantErr bool
	}{
		{"valid bare", "52998224725", "52998224725", false},
		{"valid formatted", "529.982.247-25", "52998224725", false},
		{"valid with stray spaces", " 529 982 247 25 ", "52998224725", false},
		{"another valid", "111.444.777-35", "11144477735", false},
		{"wrong second check digit", "529.982.247-26", "", true},
		{"wrong first check digit", "529.982.248-25", "", true},
		{"too short", "5299822472", "", true},
		{"too long", "529982247255", "", true},
		{"empty", "", "", true},
		{"letters only", "abc.def.ghi-jk", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCPF(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCPF(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCPF(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCPFRejectsRepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		input := ""
		for i := 0; i < 11; i++ {
			input += string(d)
		}
		t.Run(input, func(t *testing.T) {
			if _, err := ParseCPF(input); err == nil {
				t.Errorf("ParseCPF(%q) should fail for repeated digits", input)
			}
		})
	}
}

func TestCPFCheckDigitRoundTrip(t *testing.T) {
	// For any valid CPF, recomputing the check digits from its own
	// leading digits must reproduce them.
	valid := []CPF{"52998224725", "11144477735"}

	for _, cpf := range valid {
		digits := make([]int, 11)
		for i, r := range cpf {
			digits[i] = int(r - '0')
		}

		if got := checkDigit(digits, 9); got != digits[9] {
			t.Errorf("CPF %s: first check digit = %d, want %d", cpf, got, digits[9])
		}
		if got := checkDigit(digits, 10); got != digits[10] {
			t.Errorf("CPF %s: second check digit = %d, want %d", cpf, got, digits[10])
		}
	}
}

func TestCPFIsValidIsIdempotent(t *testing.T) {
	cpf := CPF("52998224725")
	for i := 0; i < 3; i++ {
		if !cpf.IsValid() {
			t.Fatalf("IsValid changed result on call %d", i+1)
		}
	}
}

func TestCPFFormatting(t *testing.T) {
	cpf := CPF("52998224725")

	if got := cpf.Formatted(); got != "529.982.247-25" {
		t.Errorf("Formatted() = %q", got)
	}
	if got := cpf.Masked(); got != "529.***.***-25" {
		t.Errorf("Masked() = %q", got)
	}
	if CPF("").Masked() != "***********" {
		t.Error("Masked() on malformed CPF should hide everything")
	}
}
