// Package oshify replaces quoted string literals with references to a JSON
// localization catalog.
//
// Reconcile extracts the interpolated expressions of a literal, looks the
// resulting template up in the catalog and either reuses the identifier of
// an identical entry or appends a new one:
//
//	r := oshify.Reconciler{}
//	res, err := r.Reconcile(ctx, `'Hi ${name}'`, "messages.json")
//	// res.Replacement is `'<new id>'.localized.format(name)`
package oshify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/oshifier/oshify/catalog"
	"github.com/oshifier/oshify/internal/ident"
	"github.com/oshifier/oshify/placeholder"
)

var (
	ErrInvalidSelection    = errors.New("invalid selection: expected a string enclosed in matching quotes")
	ErrPlaceholderMismatch = errors.New("template markers do not match the placeholders")
)

// persistCatalog is replaced in tests.
var persistCatalog = (*catalog.Catalog).Persist

// Result is the outcome of one reconciliation.
type Result struct {
	// Replacement is the text to substitute for the literal.
	Replacement string
	ID          string
	Template    string
	// Placeholders always come from the reconciled literal, even when
	// an existing message is reused.
	Placeholders []string
	// Created is set when a new message was appended to the catalog.
	Created bool
}

// Reconciler turns literals into catalog references. The zero value is
// ready to use. Unless NoLock is set, creating a message takes an advisory
// lock on the catalog and reloads it before appending.
type Reconciler struct {
	// NewID overrides the identifier generator.
	NewID func() string
	Style Style
	// Strict rejects literals whose template contains more or fewer
	// markers than extracted placeholders, e.g. a literal "{}" in the
	// source text.
	Strict bool
	NoLock bool
	Logger *zap.Logger
}

// Reconcile resolves literal against the catalog at catalogPath.
//
// The catalog is written at most once, and only when a new message is
// created. If that write fails the returned error matches
// catalog.ErrPersist and the Result is still returned: its Replacement
// references an id that is not on disk.
func (r *Reconciler) Reconcile(ctx context.Context, literal, catalogPath string) (*Result, error) {
	if !placeholder.Quoted(literal) {
		return nil, ErrInvalidSelection
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("catalog", catalogPath))

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	log.Debug("catalog loaded", zap.Int("messages", cat.Len()))

	template, placeholders := placeholder.Extract(literal)
	if r.Strict {
		if n := placeholder.CountMarkers(template); n != len(placeholders) {
			return nil, fmt.Errorf("%w: %d markers, %d placeholders in %q", ErrPlaceholderMismatch, n, len(placeholders), template)
		}
	}
	res := &Result{
		Template:     template,
		Placeholders: placeholders,
	}

	if msg, ok := cat.FindByTemplate(template); ok {
		return r.reuse(res, msg, log), nil
	}

	// only a miss takes the lock
	if !r.NoLock {
		lock, err := catalog.Lock(ctx, catalogPath)
		if err != nil {
			return nil, err
		}
		defer lock.Unlock()

		// another writer may have added the template since the first read
		if cat, err = catalog.Load(catalogPath); err != nil {
			return nil, err
		}
		if msg, ok := cat.FindByTemplate(template); ok {
			return r.reuse(res, msg, log), nil
		}
	}

	res.ID = ident.Allocator{NewID: r.NewID}.Allocate(cat)
	res.Created = true
	res.Replacement = r.Style.Render(res.ID, placeholders)
	if err := cat.Append(catalog.Message{ID: res.ID, Translation: template}); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := persistCatalog(cat, catalogPath); err != nil {
		log.Error("new message not saved", zap.String("id", res.ID), zap.Error(err))
		return res, err
	}
	log.Info("message added", zap.String("id", res.ID), zap.String("translation", template))
	return res, nil
}

func (r *Reconciler) reuse(res *Result, msg catalog.Message, log *zap.Logger) *Result {
	res.ID = msg.ID
	res.Replacement = r.Style.Render(res.ID, res.Placeholders)
	log.Debug("reusing message", zap.String("id", msg.ID))
	return res
}
