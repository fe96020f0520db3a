package booking

import (
	"regexp"
	"testing"
)

func TestNewCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^RES-[A-Z2-9]{8}$`)
	for i := 0; i < 1000; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode: %v", err)
		}
		if len(code) != 12 {
			t.Fatalf("len(%q) = %d, want 12", code, len(code))
		}
		if !re.MatchString(code) {
			t.Fatalf("code %q does not match RES- + 8 alphanumerics", code)
		}
	}
}

func TestNewCodePracticalUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode: %v", err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = struct{}{}
	}
}
