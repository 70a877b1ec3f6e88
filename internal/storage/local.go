package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
)

// LocalStore writes blobs under a base directory, one subdirectory per
// customer. References are paths relative to the base so the base can move
// between deployments.
type LocalStore struct {
	basePath string
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "create storage directory")
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) Put(_ context.Context, customerID domain.CustomerID, filename string, content io.Reader) (string, error) {
	// Uploaded filenames are untrusted; only the base name survives.
	name := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(filename))
	ref := filepath.Join(customerID.String(), name)

	dir := filepath.Join(s.basePath, customerID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStorage, "create customer directory")
	}

	f, err := os.OpenFile(filepath.Join(s.basePath, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStorage, "create blob file")
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(f.Name())
		return "", dErrors.Wrap(err, dErrors.CodeStorage, "write blob content")
	}
	return ref, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	clean := filepath.Clean(ref)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid blob reference")
	}
	if err := os.Remove(filepath.Join(s.basePath, clean)); err != nil {
		if os.IsNotExist(err) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "blob not found")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "delete blob file")
	}
	return nil
}
