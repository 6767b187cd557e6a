// Package ident allocates message identifiers.
package ident

import (
	"strings"

	"github.com/google/uuid"

	"github.com/oshifier/oshify/catalog"
)

// Lookup is the part of a catalog the allocator needs.
type Lookup interface {
	FindByID(id string) (catalog.Message, bool)
}

// Allocator draws identifiers that are not yet used in a catalog.
// The zero value is ready to use.
type Allocator struct {
	// NewID draws a candidate. Defaults to an upper-cased random
	// (version 4) UUID.
	NewID func() string
}

func newUUID() string {
	return strings.ToUpper(uuid.NewString())
}

// Allocate returns an identifier absent from in. It does not add it.
func (a Allocator) Allocate(in Lookup) string {
	draw := a.NewID
	if draw == nil {
		draw = newUUID
	}
	for {
		id := draw()
		if _, taken := in.FindByID(id); !taken {
			return id
		}
	}
}
