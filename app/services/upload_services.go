package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shashiranjanraj/stockroom/app/jobs"
)

// UploadError is a rejected upload; Error is safe to show the client.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string { return e.Message }

func uploadErr(format string, args ...any) error {
	return &UploadError{Message: fmt.Sprintf(format, args...)}
}

// ReadCSVUpload reads an uploaded file and checks it is UTF-8 CSV with
// every column the importer needs. It returns the file as text.
func ReadCSVUpload(filename string, r io.Reader) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return "", uploadErr("File must be a CSV")
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", uploadErr("File is too large (max %d bytes)", maxErr.Limit)
		}
		return "", fmt.Errorf("services: read upload: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", uploadErr("File must be UTF-8 encoded")
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	header, err := csv.NewReader(bytes.NewReader(raw)).Read()
	if errors.Is(err, io.EOF) {
		return "", uploadErr("CSV file is empty")
	}
	if err != nil {
		return "", uploadErr("Invalid CSV file: %v", err)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.TrimSpace(col)] = true
	}
	for _, col := range jobs.RequiredColumns {
		if !present[col] {
			return "", uploadErr("CSV must contain the following columns: %s", strings.Join(jobs.RequiredColumns, ", "))
		}
	}
	return string(raw), nil
}
