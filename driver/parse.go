package driver

import (
	"io"

	"go.uber.org/zap"

	"github.com/muskater/libelektra/store"
)

// Options configures a Parse call.
type Options struct {
	// RootName is the fully qualified name of the configuration root
	// all parsed keys are nested under, e.g. "user/config/app".
	RootName string
	// Logger receives every diagnostic raised during the parse. A nil
	// Logger falls back to zap.NewNop().
	Logger *zap.Logger
	// Store receives the parsed keys. A nil Store gets a fresh
	// store.MemStore.
	Store store.Store
}

// Parse reads TOML source from r and returns the resulting Store, whose
// root key carries every diagnostic raised along the way as "error/#n"
// metadata, per spec.md §6's
// "read(store, rootKey) -> status" entry point. A non-nil error means
// the parse did not complete cleanly; the returned Store still holds
// whatever was successfully committed before the first error latched.
func Parse(r io.Reader, opts Options) (store.Store, error) {
	st := opts.Store
	if st == nil {
		st = store.NewMemStore()
	}
	root := store.NewKey(opts.RootName)
	reporter := NewZapReporter(opts.Logger)

	d := New(st, root, reporter)
	lex := NewTextLexer(r)
	if err := d.Read(lex); err != nil {
		return st, err
	}
	return st, nil
}
