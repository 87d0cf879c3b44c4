package bankload

import (
	"sync"

	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/pkg/bank"
)

// Registry holds every bank currently accepted for use, keyed by hash. It
// is read-mostly: readers never block each other, writers exclude readers
// only for the duration of registering or dropping one entry, and no
// operation here can mutate an already-loaded bank object.
type Registry struct {
	mu    sync.RWMutex
	banks map[string]*bank.Package
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{banks: make(map[string]*bank.Package)}
}

// Register loads raw with cfg and adds the result to the registry under
// its bank hash, returning the frozen bank.
func (r *Registry) Register(raw []byte, cfg Config) (*bank.Package, error) {
	pkg, err := Load(raw, cfg)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.banks[pkg.Meta().BankHash] = pkg
	r.mu.Unlock()
	return pkg, nil
}

// Put adds an already-built *bank.Package directly, bypassing Load. Used by
// bootstrap code that validates a bank out of band (e.g. at build time) and
// by tests that construct a fixture package directly.
func (r *Registry) Put(pkg *bank.Package) {
	r.mu.Lock()
	r.banks[pkg.Meta().BankHash] = pkg
	r.mu.Unlock()
}

// Get returns the bank registered under hash.
func (r *Registry) Get(hash string) (*bank.Package, error) {
	r.mu.RLock()
	pkg, ok := r.banks[hash]
	r.mu.RUnlock()
	if !ok {
		return nil, corerr.New(corerr.EBankNotFound, "no bank registered under hash "+hash)
	}
	return pkg, nil
}

// Drop removes a bank from the registry. Sessions already bound to it are
// unaffected — they hold their own *bank.Package reference.
func (r *Registry) Drop(hash string) {
	r.mu.Lock()
	delete(r.banks, hash)
	r.mu.Unlock()
}
