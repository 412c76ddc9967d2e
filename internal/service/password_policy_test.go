package service

import (
	"errors"
	"testing"

	"github.com/catalog-next/internal/config"
)

func TestValidatePasswordPolicy(t *testing.T) {
	full := config.PasswordPolicyConfig{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	cases := []struct {
		name     string
		policy   config.PasswordPolicyConfig
		password string
		wantWeak bool
	}{
		{name: "empty policy accepts anything", policy: config.PasswordPolicyConfig{}, password: "x", wantWeak: false},
		{name: "too short", policy: full, password: "Aa1!", wantWeak: true},
		{name: "missing upper", policy: full, password: "abcdefg1!", wantWeak: true},
		{name: "missing lower", policy: full, password: "ABCDEFG1!", wantWeak: true},
		{name: "missing digit", policy: full, password: "Abcdefgh!", wantWeak: true},
		{name: "missing special", policy: full, password: "Abcdefg12", wantWeak: true},
		{name: "satisfies all", policy: full, password: "Abcdefg1!", wantWeak: false},
		{name: "number only policy", policy: config.PasswordPolicyConfig{MinLength: 6, RequireNumber: true}, password: "abcdef1", wantWeak: false},
	}
	for _, item := range cases {
		err := validatePassword(item.policy, item.password)
		if item.wantWeak {
			if !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("%s: error = %v, want ErrWeakPassword", item.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", item.name, err)
		}
	}
}
