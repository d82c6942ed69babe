package storage

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Title: Foo/Bar?", "Title_FooBar"},
		{"hello world", "hello_world"},
		{"already_safe-name", "already_safe-name"},
		{"Café Déjà Vu", "Cafe_Deja_Vu"},
		{"  padded  ", "padded"},
		{"日本語のタイトル", "日本語のタイトル"},
		{"ガイド", "ガイド"},
		{"?!*", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeTitle(tt.in); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeTitle_AllowedCharacters(t *testing.T) {
	got := SanitizeTitle(`a <b> "c" | d \ e * f : g ? h / i . j , k ; l`)
	for _, r := range got {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			t.Fatalf("SanitizeTitle produced disallowed rune %q in %q", r, got)
		}
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	got := SanitizeTitle(strings.Repeat("x", 200))
	if len([]rune(got)) != maxTitleRunes {
		t.Fatalf("len = %d, want %d", len([]rune(got)), maxTitleRunes)
	}
}

func TestSanitizeTitle_ByteLimit(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{"three byte runes", strings.Repeat("日本語字幕", 20)},
		{"four byte runes", strings.Repeat("\U00020000", 80)},
		{"mixed", strings.Repeat("a日", 60)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeTitle(tt.title)
			if len(got) > maxTitleBytes {
				t.Fatalf("len = %d bytes, want <= %d", len(got), maxTitleBytes)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("title cut inside a rune: %q", got)
			}
			if !strings.HasPrefix(tt.title, got) {
				t.Fatalf("SanitizeTitle(%q) = %q, want a prefix of the title", tt.title, got)
			}
		})
	}

	if got := SanitizeTitle(strings.Repeat("日本語字幕", 20)); utf8.RuneCountInString(got) != 66 {
		t.Fatalf("rune count = %d, want 66", utf8.RuneCountInString(got))
	}
}

func TestArtifactName_FitsNameMax(t *testing.T) {
	taskID := "3f1c2b8e-9d4a-4c1e-8b7f-2a6d5e4c3b21"
	name := ArtifactName(strings.Repeat("日本語字幕", 20), taskID)
	if len(name) > 255 {
		t.Fatalf("name is %d bytes, want <= 255", len(name))
	}
	if !strings.HasSuffix(name, "-"+taskID+".txt") {
		t.Fatalf("name = %q", name)
	}
}

func TestArtifactName(t *testing.T) {
	if got := ArtifactName("My Video", "abc"); got != "My_Video-abc.txt" {
		t.Errorf("ArtifactName = %q", got)
	}
	if got := ArtifactName("???", "abc"); got != "abc.txt" {
		t.Errorf("ArtifactName with empty title = %q", got)
	}
}
