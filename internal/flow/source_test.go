package flow

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSourceQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text      string
		wantChars int
		wantOK    bool
	}{
		{"", 0, false},
		{strings.Repeat("a", 499), 499, false},
		{strings.Repeat("a", 500), 500, true},
		// Characters, not bytes.
		{strings.Repeat("é", 500), 500, true},
		{strings.Repeat("👋", 250), 250, false},
	}
	for _, tt := range tests {
		chars, ok := SourceQuality(tt.text)
		if chars != tt.wantChars || ok != tt.wantOK {
			t.Errorf("SourceQuality(%d bytes) = %d, %v; want %d, %v", len(tt.text), chars, ok, tt.wantChars, tt.wantOK)
		}
	}
}

func TestReadSourceFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	good := write("chat.txt", []byte("lol ok see u there 🎉"))
	got, err := ReadSourceFile(good)
	if err != nil || got != "lol ok see u there 🎉" {
		t.Fatalf("ReadSourceFile = %q, %v", got, err)
	}

	upper := write("NOTES.TXT", []byte("hi"))
	if _, err := ReadSourceFile(upper); err != nil {
		t.Fatalf("uppercase extension rejected: %v", err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"wrong extension", write("chat.md", []byte("hi")), ErrSourceNotText},
		{"binary content", write("blob.txt", []byte{0xff, 0xfe, 0x00}), ErrSourceNotText},
		{"exactly 1MB", write("big.txt", make([]byte, MaxSourceBytes)), ErrSourceTooLarge},
		{"directory", filepath.Join(dir, "sub.txt"), ErrSourceNotText},
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, tt := range tests {
		if _, err := ReadSourceFile(tt.path); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}

	if _, err := ReadSourceFile(filepath.Join(dir, "missing.txt")); err == nil || errors.Is(err, ErrSourceNotText) {
		t.Fatalf("missing file: err = %v", err)
	}
}

func TestCheckSourceSize(t *testing.T) {
	t.Parallel()

	if err := CheckSourceSize(strings.Repeat("a", MaxSourceBytes-1)); err != nil {
		t.Fatalf("just under the limit: %v", err)
	}
	if err := CheckSourceSize(strings.Repeat("a", MaxSourceBytes)); !errors.Is(err, ErrSourceTooLarge) {
		t.Fatalf("at the limit: %v", err)
	}
}

func TestSourceModeString(t *testing.T) {
	t.Parallel()

	if got := SourceUpload.String(); got != "Precision: Upload File" {
		t.Fatalf("String() = %q", got)
	}
	if got := SourceMode(9).String(); got != "SourceMode(9)" {
		t.Fatalf("String() = %q", got)
	}
	if len(SourceModes()) != 3 {
		t.Fatalf("SourceModes() = %v", SourceModes())
	}
}
