package cache

import (
	"strings"
	"testing"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"

	if hashIP(ip) != hashIP(ip) {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if hash := hashIP(tt.ip); len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
		})
	}
}

func TestTokenKey(t *testing.T) {
	t.Parallel()

	token := "eyJhbGciOiJIUzI1NiJ9.payload.signature"
	key := TokenKey(token)

	if len(key) != 32 {
		t.Errorf("TokenKey length = %d, want 32", len(key))
	}
	if strings.Contains(key, token) {
		t.Error("TokenKey must not embed the raw token")
	}
	if TokenKey(token) != key {
		t.Error("TokenKey should be deterministic")
	}
	if TokenKey(token+"x") == key {
		t.Error("different tokens should produce different keys")
	}
}
