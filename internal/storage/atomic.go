package storage

import (
	"encoding/json"
	"os"
)

// WriteJSONAtomic marshals v and writes it to path via a temp file + rename,
// grounded on the teacher's savePersistentStats/controller.Store.saveLocked
// write-to-temp-then-rename pattern.
func WriteJSONAtomic(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to path via a temp file + rename, the same
// pattern WriteJSONAtomic uses, for callers that already have bytes.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadJSON unmarshals the JSON object stored at path into v. Returns
// os.ErrNotExist (wrapped) if the file is missing.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
