// Package storage holds the document blob backends. The ledger only ever
// sees opaque blob references; which backend produced them is invisible to
// business code.
package storage

import (
	"context"
	"io"

	"bankflow/pkg/domain"
)

// BlobStore persists uploaded document content. Put returns an opaque
// reference the caller stores on the document record; Delete takes that
// reference back.
type BlobStore interface {
	Put(ctx context.Context, customerID domain.CustomerID, filename string, content io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}
