package scanner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
)

// TextReader reads UTF-8 text files as-is.
type TextReader struct{}

// CanRead reports whether path is a plain text file.
func (r *TextReader) CanRead(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".text"
}

// ReadText returns the file content. Files containing NUL bytes are rejected.
func (r *TextReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	if bytes.IndexByte(buf, 0) >= 0 {
		return "", fmt.Errorf("reading text file %s: binary content", path)
	}
	return string(buf), nil
}

// DocconvReader converts rich formats to text with docconv.
type DocconvReader struct{}

var docconvExtensions = map[string]bool{
	".pdf":   true,
	".docx":  true,
	".doc":   true,
	".odt":   true,
	".rtf":   true,
	".html":  true,
	".htm":   true,
	".xml":   true,
	".pages": true,
}

// CanRead reports whether docconv handles the file's extension.
func (r *DocconvReader) CanRead(path string) bool {
	return docconvExtensions[strings.ToLower(filepath.Ext(path))]
}

// ReadText converts the document and returns its body text.
func (r *DocconvReader) ReadText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to convert document: %w", err)
	}
	return res.Body, nil
}

// DefaultReaders returns the reader chain used when Options.Readers is empty.
func DefaultReaders() []Reader {
	return []Reader{&TextReader{}, &DocconvReader{}}
}
