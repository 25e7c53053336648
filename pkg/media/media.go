// Package media stores data product payloads on local disk.
//
// Payloads are addressed by the relative path recorded on the data
// product:
//
//	fits/<target>/<file>                      for FITS files
//	targets/<target>/<facility>/<kind>/<file> for observation uploads
//	targets/<target>/user/<kind>/<file>       for user uploads
package media

import (
	"io"
	"os"
	"path/filepath"

	tdb "github.com/starwatch/tom/pkg/db"
)

type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// PathFor computes the relative payload path of a data product.
// facility is empty when the product is not tied to an observation.
func PathFor(product tdb.DataProduct, targetName string, facility string) string {
	filename := filepath.Base(product.Filename)

	if product.Type == tdb.FitsFile {
		return filepath.Join("fits", targetName, filename)
	}
	if facility == "" {
		facility = "user"
	}
	return filepath.Join("targets", targetName, facility, string(product.Type), filename)
}

// Save writes the payload under the store root, creating directories as
// needed.
func (s *Store) Save(path string, payload io.Reader) (err error) {
	full := filepath.Join(s.root, filepath.Clean(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	f, err := os.Create(full)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(f, payload)
	return err
}

// Open streams the payload at the path. The caller closes it.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.root, filepath.Clean(path)))
}

// Remove deletes the payload. Removing a payload that is not there is
// not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(filepath.Join(s.root, filepath.Clean(path)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
