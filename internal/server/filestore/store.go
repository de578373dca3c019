// Package filestore keeps the physical bytes of uploaded files. It knows
// nothing about owners; the registry keeps that metadata.
package filestore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/google/uuid"
)

// Store writes objects under generated names and removes them by address.
//
// Remove reports a missing object as an error wrapping both
// common.ErrStorage and common.ErrorNotFound. Context expiry is reported as
// common.ErrTimeout.
type Store interface {
	Write(ctx context.Context, data []byte) (string, error)
	Remove(ctx context.Context, address string) error
}

// newAddress returns a random version 4 UUID name with the given extension.
func newAddress(ext string) string {
	return uuid.NewString() + ext
}

// validAddress rejects anything that could escape the storage root.
func validAddress(address string) error {
	if address == "" || address == "." || address == ".." ||
		strings.ContainsAny(address, `/\`) || path.Clean(address) != address {
		return fmt.Errorf("%w: invalid address %q", common.ErrStorage, address)
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return common.WrapTimeout(err)
	}
	return nil
}
