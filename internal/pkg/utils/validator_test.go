package utils

import "testing"

func TestValidator_ValidateUsername(t *testing.T) {
	cases := []struct {
		username string
		valid    bool
	}{
		{"alice", true},
		{"trader_42", true},
		{"a-b-c", true},
		{"ab", false},
		{"", false},
		{"has spaces", false},
		{"emoji😀", false},
	}

	for _, c := range cases {
		v := NewValidator()
		got := v.ValidateUsername("username", c.username)
		if got != c.valid {
			t.Errorf("ValidateUsername(%q) = %v, want %v", c.username, got, c.valid)
		}
		if got == v.HasErrors() {
			t.Errorf("ValidateUsername(%q): errors state inconsistent with result", c.username)
		}
	}
}

func TestValidator_ValidateEmail(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"alice@example.com", true},
		{"a.b+c@sub.example.io", true},
		{"not-an-email", false},
		{"@example.com", false},
		{"", false},
	}

	for _, c := range cases {
		v := NewValidator()
		if got := v.ValidateEmail("email", c.email); got != c.valid {
			t.Errorf("ValidateEmail(%q) = %v, want %v", c.email, got, c.valid)
		}
	}
}

func TestValidator_ValidateCapacity(t *testing.T) {
	cases := []struct {
		capacity int
		valid    bool
	}{
		{1, true},
		{10000, true},
		{0, false},
		{-5, false},
		{10001, false},
	}

	for _, c := range cases {
		v := NewValidator()
		if got := v.ValidateCapacity("capacity", c.capacity); got != c.valid {
			t.Errorf("ValidateCapacity(%d) = %v, want %v", c.capacity, got, c.valid)
		}
	}
}

func TestValidator_CollectsMultipleErrors(t *testing.T) {
	v := NewValidator()
	v.ValidateUsername("username", "x")
	v.ValidateEmail("email", "nope")
	v.ValidatePassword("password", "short")

	errs := v.Errors()
	if len(errs) != 3 {
		t.Fatalf("Expected 3 errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Field != "username" || errs[1].Field != "email" || errs[2].Field != "password" {
		t.Errorf("Unexpected error fields: %v", errs)
	}
}

func TestValidateUUID(t *testing.T) {
	if !ValidateUUID("123e4567-e89b-12d3-a456-426614174000") {
		t.Error("Expected well-formed UUID to validate")
	}
	if ValidateUUID("not-a-uuid") {
		t.Error("Expected malformed UUID to fail")
	}
	if ValidateUUID("") {
		t.Error("Expected empty string to fail")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Errorf("Expected control characters stripped and trimmed, got %q", got)
	}
	if got := SanitizeString("line1\nline2"); got != "line1\nline2" {
		t.Errorf("Expected newlines preserved, got %q", got)
	}
}
