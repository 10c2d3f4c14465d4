// Package contentstore abstracts immutable blob storage behind opaque
// content handles.
package contentstore

import "context"

// Store persists immutable blobs. Put is not required to be idempotent
// at the byte level: uploading the same bytes twice may yield different
// handles. Get of an unresolvable handle returns apperr.ErrNotFound.
//
// IsHandle reports whether a string has the shape of a handle issued by
// this store. Mint-time metadata is either a handle or an inline
// document; the store owns the discriminator so the service never
// hard-codes one store's handle syntax.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, handle string) ([]byte, error)
	IsHandle(s string) bool
}
