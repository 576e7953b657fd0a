package storage

import (
	"testing"

	apperrors "github.com/kbukum/s3fs/errors"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "media/avatar.png", "media/avatar.png"},
		{"windows separators", `media\photos\avatar.png`, "media/photos/avatar.png"},
		{"mixed separators", `media\photos/avatar.png`, "media/photos/avatar.png"},
		{"leading slash", "/media/avatar.png", "media/avatar.png"},
		{"repeated separators", "media//photos///avatar.png", "media/photos/avatar.png"},
		{"self segments", "./media/./avatar.png", "media/avatar.png"},
		{"parent segments", "media/photos/../avatar.png", "media/avatar.png"},
		{"parent at root discarded", "../media/avatar.png", "media/avatar.png"},
		{"deep climb discarded", "../../../a/b", "a/b"},
		{"trailing slash", "media/photos/", "media/photos"},
		{"single file", "avatar.png", "avatar.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKey(tt.in)
			if err != nil {
				t.Fatalf("NormalizeKey(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey_EquivalentPaths(t *testing.T) {
	// Paths that differ only by separator style or redundant segments must
	// address the same object.
	groups := [][]string{
		{"a/b/c.txt", `a\b\c.txt`, "a//b//c.txt", "./a/b/c.txt", "a/x/../b/c.txt"},
		{"f.txt", "/f.txt", "../f.txt", "./f.txt"},
	}
	for _, group := range groups {
		want, err := NormalizeKey(group[0])
		if err != nil {
			t.Fatalf("NormalizeKey(%q) error: %v", group[0], err)
		}
		for _, p := range group[1:] {
			got, err := NormalizeKey(p)
			if err != nil {
				t.Fatalf("NormalizeKey(%q) error: %v", p, err)
			}
			if got != want {
				t.Errorf("NormalizeKey(%q) = %q, want %q (same as %q)", p, got, want, group[0])
			}
		}
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	inputs := []string{"a/b/c.txt", `a\b\..\c.txt`, "/x//y/", "../z"}
	for _, in := range inputs {
		once, err := NormalizeKey(in)
		if err != nil {
			t.Fatalf("NormalizeKey(%q) error: %v", in, err)
		}
		twice, err := NormalizeKey(once)
		if err != nil {
			t.Fatalf("NormalizeKey(%q) error: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeKey_EmptyResult(t *testing.T) {
	for _, in := range []string{"", "/", ".", "..", "../..", "//", `\`} {
		_, err := NormalizeKey(in)
		if err == nil {
			t.Errorf("NormalizeKey(%q): expected error", in)
			continue
		}
		if apperrors.CodeOf(err) != apperrors.ErrCodeInvalidKey {
			t.Errorf("NormalizeKey(%q): expected INVALID_KEY, got %s", in, apperrors.CodeOf(err))
		}
	}
}

func TestJoinPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "a/b", "a/b"},
		{"uploads", "a/b", "uploads/a/b"},
		{"/uploads/", "a/b", "uploads/a/b"},
		{"uploads/media", "a", "uploads/media/a"},
		{`uploads\media`, "a", "uploads/media/a"},
		{"uploads", "", "uploads"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := JoinPrefix(tt.prefix, tt.key); got != tt.want {
			t.Errorf("JoinPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}

func TestProfile_Key(t *testing.T) {
	p := &Profile{KeyPrefix: "uploads"}
	got, err := p.Key(`media\2024/../2025/report.pdf`)
	if err != nil {
		t.Fatalf("Key error: %v", err)
	}
	if got != "uploads/media/2025/report.pdf" {
		t.Errorf("Key = %q", got)
	}
}
