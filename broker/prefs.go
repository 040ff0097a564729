package broker

import (
	"io"
	"os"
	"path/filepath"
)

// readPrefs returns the raw contents of the preferences file. Its format is
// opaque to the broker: persistent preferences storage belongs to an
// external collaborator, and the broker only relays bytes.
func readPrefs(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// writePrefs overwrites the preferences file with body, creating its parent
// directory if necessary.
func writePrefs(path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, body)
	return err
}
