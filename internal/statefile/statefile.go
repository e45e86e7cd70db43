package statefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	stateDirectoryPermissionsConstant    = 0o755
	stateFilePermissionsConstant         = os.FileMode(0o644)
	temporaryFilePatternTemplateConstant = ".%s-*.tmp"
	encodeErrorTemplateConstant          = "encoding state for %s failed: %w"
	writeErrorTemplateConstant           = "writing state file %s failed: %w"
	renameErrorTemplateConstant          = "replacing state file %s failed: %w"
	readErrorTemplateConstant            = "reading state file %s failed: %w"
	corruptStateErrorTemplateConstant    = "state file %s is corrupt: %s"
	jsonIndentConstant                   = "  "
	jsonPrefixConstant                   = ""
)

// CorruptStateError reports a state file whose contents could not be decoded.
// Callers decide whether to reset or propagate.
type CorruptStateError struct {
	Path  string
	Cause error
}

// Error describes the corrupt state file.
func (corruptError CorruptStateError) Error() string {
	return fmt.Sprintf(corruptStateErrorTemplateConstant, corruptError.Path, corruptError.Cause)
}

// Unwrap exposes the underlying decoding error.
func (corruptError CorruptStateError) Unwrap() error {
	return corruptError.Cause
}

// SaveJSON persists value as indented JSON at path using a write-then-rename so
// a concurrent reader never observes a partially written file.
func SaveJSON(path string, value any) error {
	encoded, encodeError := json.MarshalIndent(value, jsonPrefixConstant, jsonIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(encodeErrorTemplateConstant, path, encodeError)
	}

	directory := filepath.Dir(path)
	if mkdirError := os.MkdirAll(directory, stateDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, path, mkdirError)
	}

	temporaryFile, createError := os.CreateTemp(directory, fmt.Sprintf(temporaryFilePatternTemplateConstant, filepath.Base(path)))
	if createError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, path, createError)
	}
	temporaryPath := temporaryFile.Name()

	_, writeError := temporaryFile.Write(encoded)
	closeError := temporaryFile.Close()
	if writeError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, path, writeError)
	}
	if closeError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, path, closeError)
	}

	if chmodError := os.Chmod(temporaryPath, stateFilePermissionsConstant); chmodError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, path, chmodError)
	}

	if renameError := os.Rename(temporaryPath, path); renameError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(renameErrorTemplateConstant, path, renameError)
	}

	return nil
}

// LoadJSON populates target from the JSON state file at path. It reports
// found=false when the file does not exist and a CorruptStateError when the
// contents cannot be decoded.
func LoadJSON(path string, target any) (bool, error) {
	contents, readError := os.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(readErrorTemplateConstant, path, readError)
	}

	if decodeError := json.Unmarshal(contents, target); decodeError != nil {
		return false, CorruptStateError{Path: path, Cause: decodeError}
	}

	return true, nil
}
