package usecase

import (
	"strings"
	"testing"
)

func TestNewTokenKeyFormat(t *testing.T) {
	key := NewTokenKey()
	if len(key) != KeyLength {
		t.Fatalf("expected %d characters, got %d: %q", KeyLength, len(key), key)
	}
	if strings.ContainsAny(key, "-_ ") {
		t.Fatalf("key must not contain separators: %q", key)
	}
	for _, c := range key {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("unexpected character %q in key %q", c, key)
		}
	}
}

func TestNewTokenKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := NewTokenKey()
		if seen[key] {
			t.Fatalf("duplicate key generated: %q", key)
		}
		seen[key] = true
	}
}
