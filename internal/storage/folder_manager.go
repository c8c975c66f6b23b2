package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var unsafeFolderChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// FolderManager lays documents out as <base>/<company>/<yyyy-mm>/
type FolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewFolderManager creates a new FolderManager
func NewFolderManager(baseDir string, logger *zap.Logger) *FolderManager {
	return &FolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// CompanyFolderPath returns the folder for a company's documents of the given month.
// It does not create the folder.
func (m *FolderManager) CompanyFolderPath(companyName string, date time.Time) string {
	safe := m.SanitizeFolderName(companyName)
	if safe == "" {
		safe = "unassigned"
	}
	if date.IsZero() {
		date = time.Now()
	}
	return filepath.Join(m.baseDir, safe, date.Format("2006-01"))
}

// EnsureCompanyFolder creates the company/month folder if missing and returns its path
func (m *FolderManager) EnsureCompanyFolder(companyName string, date time.Time) (string, error) {
	folderPath := m.CompanyFolderPath(companyName, date)

	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create document folder",
			zap.String("company", companyName),
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	return folderPath, nil
}

// SanitizeFolderName returns a filesystem-safe version of the name
func (m *FolderManager) SanitizeFolderName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "..", ""))
	name = strings.ReplaceAll(name, " ", "_")
	return unsafeFolderChars.ReplaceAllString(name, "")
}
