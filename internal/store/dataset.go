package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"sentinel/fraud-monitor/internal/domain"
)

var (
	// ErrDatasetNotFound is returned when the dataset file does not exist.
	ErrDatasetNotFound = errors.New("dataset file not found")
	// ErrDatasetMalformed is returned when the file is not valid JSON.
	ErrDatasetMalformed = errors.New("dataset file is not valid JSON")
	// ErrDatasetShape is returned when the top-level JSON value is not an
	// array of user records.
	ErrDatasetShape = errors.New("dataset must be an array of user records")
)

// Dataset reads and writes the user-record file.
type Dataset struct {
	path string
}

// NewDataset returns a Dataset backed by the file at path.
func NewDataset(path string) *Dataset {
	return &Dataset{path: path}
}

// Path returns the backing file path.
func (d *Dataset) Path() string { return d.path }

// Load reads the whole dataset from disk. Every call reads the file afresh;
// nothing is cached between calls.
func (d *Dataset) Load() ([]domain.User, error) {
	data, err := d.read()
	if err != nil {
		return nil, err
	}
	return DecodeUsers(data)
}

// ReadRaw returns the dataset file's bytes after checking that they decode,
// so callers can serve the artifact itself rather than a re-encoding.
func (d *Dataset) ReadRaw() ([]byte, error) {
	data, err := d.read()
	if err != nil {
		return nil, err
	}
	if _, err := DecodeUsers(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (d *Dataset) read() ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, d.path)
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return data, nil
}

// Save replaces the dataset file with users. Records that were loaded from
// the file keep every member they were read with; see domain.User.
func (d *Dataset) Save(users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}
	return writeJSONAtomic(d.path, users)
}

// DecodeUsers parses a dataset document. It distinguishes invalid JSON from
// valid JSON of the wrong shape so callers can report which one happened.
// Only the top level is checked; individual records decode leniently.
func DecodeUsers(data []byte) ([]domain.User, error) {
	if !json.Valid(data) {
		return nil, ErrDatasetMalformed
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrDatasetShape
	}

	var users []domain.User
	if err := json.Unmarshal(trimmed, &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetShape, err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
