package flow

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// SourceMode is how the writing sample is provided on the data source step.
type SourceMode int

const (
	// SourceBio is a short self-description typed or copied from a profile.
	SourceBio SourceMode = iota + 1
	// SourcePaste is a large body of writing such as chat logs or emails.
	SourcePaste
	// SourceUpload is a plain text file read from disk.
	SourceUpload
)

var sourceModeNames = [...]string{
	SourceBio:    "Quick Start",
	SourcePaste:  "Precision: Paste Text",
	SourceUpload: "Precision: Upload File",
}

func (m SourceMode) String() string {
	if m < SourceBio || m > SourceUpload {
		return fmt.Sprintf("SourceMode(%d)", int(m))
	}
	return sourceModeNames[m]
}

// SourceModes lists the modes in display order.
func SourceModes() []SourceMode {
	return []SourceMode{SourceBio, SourcePaste, SourceUpload}
}

const (
	// RecommendedSourceChars is the sample length at which the twin is
	// considered well sourced. Shorter samples are still accepted.
	RecommendedSourceChars = 500
	// MaxSourceBytes caps an uploaded file and a pasted sample.
	MaxSourceBytes = 1 << 20
)

var (
	// ErrSourceTooLarge is returned for a sample of MaxSourceBytes or more.
	ErrSourceTooLarge = errors.New("source exceeds 1MB limit")
	// ErrSourceNotText is returned for an upload that is not a .txt file.
	ErrSourceNotText = errors.New("source is not a plain text file")
)

// SourceQuality reports the character count of text and whether it reaches
// RecommendedSourceChars.
func SourceQuality(text string) (chars int, sufficient bool) {
	chars = utf8.RuneCountInString(text)
	return chars, chars >= RecommendedSourceChars
}

// CheckSourceSize rejects samples of MaxSourceBytes or more.
func CheckSourceSize(text string) error {
	if len(text) >= MaxSourceBytes {
		return ErrSourceTooLarge
	}
	return nil
}

// ReadSourceFile loads an uploaded writing sample. The file must be plain
// text by extension and content, and smaller than MaxSourceBytes.
func ReadSourceFile(path string) (string, error) {
	if !strings.HasPrefix(mime.TypeByExtension(strings.ToLower(filepath.Ext(path))), "text/plain") {
		return "", ErrSourceNotText
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("read source file: %w", err)
	}
	if info.IsDir() {
		return "", ErrSourceNotText
	}
	if info.Size() >= MaxSourceBytes {
		return "", ErrSourceTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source file: %w", err)
	}
	if err := CheckSourceSize(string(data)); err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrSourceNotText
	}
	return string(data), nil
}
