package port

// FileStorage writes generated documents below a base directory
type FileStorage interface {
	SaveFile(fullPath string, content []byte) error
	ValidatePath(fullPath string) error
	BaseDir() string
}
