// Package registry provides a global registry of session operations.
// Operations register themselves in init() functions, allowing the CLI,
// network handlers and replay to dispatch by name without hardcoded switches.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/flappy-core/internal/games/flappy"
)

// ErrUnknownOp is returned by Lookup for unregistered names.
var ErrUnknownOp = errors.New("unknown operation")

// Handler applies one operation to a record on behalf of the proof holder.
// now is the caller-supplied clock value.
type Handler func(g *flappy.GameState, p flappy.Proof, now int64) error

// OpInfo contains metadata about a registered operation.
type OpInfo struct {
	Name  string
	Title string
}

type entry struct {
	info    OpInfo
	handler Handler
}

var (
	ops = make(map[string]entry)
	mu  sync.RWMutex
)

// Register adds an operation to the registry.
// Panics if an operation with the same name is already registered.
func Register(name, title string, h Handler) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := ops[name]; exists {
		panic(fmt.Sprintf("registry: operation %q already registered", name))
	}
	ops[name] = entry{info: OpInfo{Name: name, Title: title}, handler: h}
}

// List returns information about all registered operations, sorted by name.
func List() []OpInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]OpInfo, 0, len(ops))
	for _, e := range ops {
		result = append(result, e.info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Lookup returns the handler for an operation name.
// Returns an error if the name is not registered.
func Lookup(name string) (Handler, error) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := ops[name]
	if !ok {
		return nil, fmt.Errorf("registry: %w %q", ErrUnknownOp, name)
	}
	return e.handler, nil
}

// Exists checks if an operation with the given name is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := ops[name]
	return ok
}
