package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestHashUserKey(t *testing.T) {
	id := "guest:3f8a2c"
	got := HashUserKey(id)
	if got != HashUserKey(" "+id+" ") {
		t.Fatalf("expected whitespace-insensitive hash, got %s", got)
	}
	if got == HashUserKey("user-1") {
		t.Fatalf("distinct ids must not collide")
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"wechat export.txt":       "wechat export.txt",
		"exports/2026/chat.md":    "exports_2026_chat.md",
		"C:\\Users\\a\\offer.pdf": "C:_Users_a_offer.pdf",
		"tab\tname.csv":           "tab_name.csv",
		"  .hidden.txt ":          "hidden.txt",
	}
	for in, want := range cases {
		got, err := SanitizeFileName(in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}

	for _, bad := range []string{"", "   ", "../etc/passwd", "///"} {
		if _, err := SanitizeFileName(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestSanitizeFileNameKeepsExtensionWhenTruncating(t *testing.T) {
	long := strings.Repeat("供应商聊天", 20) + ".docx"
	got, err := SanitizeFileName(long)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(got) > MaxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", MaxFileNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".docx") || !utf8.ValidString(got) {
		t.Fatalf("unexpected truncation %q", got)
	}
}
