package lockdb

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const lockVersion = "0.1.0-beta0"

// ReadTOML decodes a tinymist.lock file.
func ReadTOML(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var lock LockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrMalformedLock, path, err)
	}
	if err := lock.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &lock, nil
}

// WriteTOML encodes lock into path.
func WriteTOML(path string, lock *LockFile) error {
	out := *lock
	if out.Version == "" {
		out.Version = lockVersion
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
