package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}

// GetOutputFilePath generates a full path for an output file
func (om *OutputManager) GetOutputFilePath(fileName string) string {
	// Clean the filename to remove any path separators
	return filepath.Join(om.BaseOutputDir, filepath.Base(fileName))
}

// WriteFile stores data under the output directory and returns its path.
// An existing file with the same name is replaced.
func (om *OutputManager) WriteFile(fileName string, data []byte) (string, error) {
	if err := om.EnsureOutputDirExists(); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := om.GetOutputFilePath(fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// GetFileType determines the file type based on extension
func GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".xls":
		return "xls"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type served for a file type.
func ContentType(fileType string) string {
	switch fileType {
	case "csv":
		return "text/csv; charset=utf-8"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
