// Package app holds process wiring shared by the binaries under cmd/.
package app

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Closers releases resources in reverse registration order.
type Closers struct {
	mu    sync.Mutex
	names []string
	fns   []func() error
}

func (c *Closers) Add(name string, fn func() error) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	c.fns = append(c.fns, fn)
}

// Close runs every registered func once, even when earlier ones fail, and
// returns the combined error.
func (c *Closers) Close() error {
	c.mu.Lock()
	names, fns := c.names, c.fns
	c.names, c.fns = nil, nil
	c.mu.Unlock()

	var result *multierror.Error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", names[i], err))
		}
	}
	return result.ErrorOrNil()
}
