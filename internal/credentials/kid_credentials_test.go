package credentials

import (
	"strings"
	"testing"
)

func TestGenerateChildUsername(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		username, err := GenerateChildUsername()
		if err != nil {
			t.Fatalf("GenerateChildUsername() error = %v", err)
		}

		parts := strings.Split(username, "-")
		if len(parts) != 2 {
			t.Fatalf("username %q not in adjective-noun format", username)
		}
		if parts[0] == "" || parts[1] == "" {
			t.Errorf("username %q has an empty part", username)
		}
		seen[username] = true
	}

	// With 40x40 combinations, 50 draws should not all collide
	if len(seen) < 2 {
		t.Error("expected some variety in generated usernames")
	}
}

func TestGenerateChildPassword(t *testing.T) {
	passwords := make(map[string]bool)
	for i := 0; i < 50; i++ {
		password, err := GenerateChildPassword()
		if err != nil {
			t.Fatalf("GenerateChildPassword() error = %v", err)
		}
		if len(password) != 8 {
			t.Errorf("password length = %d, want 8", len(password))
		}
		if passwords[password] {
			t.Errorf("duplicate password generated: %s", password)
		}
		passwords[password] = true
	}
}
