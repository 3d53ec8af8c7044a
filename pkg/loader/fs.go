package loader

import "os"

// fileExists reports whether path names a regular, readable file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// readFile reads the full contents of path, surfacing the OS error
// unchanged (the spec only asks the core to distinguish its own error
// kinds; a missing import file is an ordinary read failure).
func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
