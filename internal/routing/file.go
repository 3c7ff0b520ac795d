package routing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FilePersister stores routes as {"<guild id>": <channel id>} with two-space
// indentation so the file stays hand-editable.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (f *FilePersister) Path() string { return f.path }

func (f *FilePersister) Load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}

	routes := make(map[string]string, len(raw))
	for guildID, channel := range raw {
		id, err := strconv.ParseUint(channel.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel id for guild %s: %w", guildID, err)
		}
		routes[guildID] = strconv.FormatUint(id, 10)
	}
	return routes, nil
}

func (f *FilePersister) Save(routes map[string]string) error {
	raw := make(map[string]uint64, len(routes))
	for guildID, channelID := range routes {
		id, err := strconv.ParseUint(channelID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid channel id for guild %s: %w", guildID, err)
		}
		raw[guildID] = id
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	unlock, err := lockFile(f.path + ".lock")
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", f.path, err)
	}
	defer unlock()

	return writeFileAtomic(f.path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
