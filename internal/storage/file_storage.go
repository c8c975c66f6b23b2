package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileType identifies what kind of generated document is written
type FileType int

const (
	FileTypeGeneric FileType = iota
	FileTypePDF
	FileTypeWorkbook
	FileTypePreview
)

// Extension returns the file extension for the type, with the leading dot
func (t FileType) Extension() string {
	switch t {
	case FileTypePDF:
		return ".pdf"
	case FileTypeWorkbook:
		return ".xlsx"
	case FileTypePreview:
		return ".png"
	default:
		return ""
	}
}

// LocalFileStorage writes generated documents below a base directory
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// BaseDir returns the root all documents are written under
func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

// SaveFile writes content to the specified full path
func (s *LocalFileStorage) SaveFile(fullPath string, content []byte) error {
	return s.SaveFileWithType(fullPath, content, typeFromPath(fullPath))
}

// SaveFileWithType writes content, creating parent directories as needed.
// The write goes through a temp file so a reader never sees a partial document.
func (s *LocalFileStorage) SaveFileWithType(fullPath string, content []byte, fileType FileType) error {
	if err := s.ValidatePath(fullPath); err != nil {
		return err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(parentDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("Document saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)),
		zap.Int("file_type", int(fileType)))

	return nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

func typeFromPath(p string) FileType {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".pdf":
		return FileTypePDF
	case ".xlsx":
		return FileTypeWorkbook
	case ".png":
		return FileTypePreview
	default:
		return FileTypeGeneric
	}
}
