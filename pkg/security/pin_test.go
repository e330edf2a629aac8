package security

import "testing"

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4321")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPIN("4321", hash) {
		t.Fatal("pin should verify against its own hash")
	}
	if VerifyPIN("1234", hash) {
		t.Fatal("wrong pin must not verify")
	}
}

func TestValidatePIN(t *testing.T) {
	cases := map[string]bool{
		"4321":      true,
		"12345678":  true,
		"123":       false,
		"123456789": false,
		"12a4":      false,
		"":          false,
	}
	for pin, want := range cases {
		err := ValidatePIN(pin)
		if (err == nil) != want {
			t.Errorf("ValidatePIN(%q) = %v, want valid=%v", pin, err, want)
		}
	}
}

func TestGenerateTempPIN(t *testing.T) {
	pin, err := GenerateTempPIN(6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pin) != 6 {
		t.Fatalf("unexpected length %d", len(pin))
	}
	if err := ValidatePIN(pin); err != nil {
		t.Fatalf("generated pin invalid: %v", err)
	}
}
