package backend

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/gogpu/mailbox"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for Default (first that opens wins).
	backendPriority = []string{NameWGPU, NameSoftware}
)

// Register registers a backend factory under name. Backend packages call it
// from init(). An existing registration with the same name is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device from the named backend.
func Open(name string) (mailbox.Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}

	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", name, err)
	}
	mailbox.Logger().Info("backend: opened", "backend", name)
	return dev, nil
}

// Default opens the best available backend.
// Priority order: wgpu > software, then any other registered backend.
// A backend that fails to open is skipped.
func Default() (string, mailbox.Device, error) {
	var errs []error
	tried := make(map[string]bool, len(backendPriority))

	for _, name := range slices.Concat(backendPriority, Available()) {
		if tried[name] || !IsRegistered(name) {
			continue
		}
		tried[name] = true

		dev, err := Open(name)
		if err == nil {
			return name, dev, nil
		}
		mailbox.Logger().Warn("backend: falling back", "backend", name, "err", err)
		errs = append(errs, err)
	}
	return "", nil, errors.Join(append([]error{ErrNoBackend}, errs...)...)
}
