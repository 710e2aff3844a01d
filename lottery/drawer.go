package lottery

import "math/rand/v2"

// Drawer picks the winning ticket index for a round. Draw receives the
// total ticket count and must return an index in [0, total).
type Drawer interface {
	Draw(total uint64) uint64
}

// DrawerFunc adapts a function to the Drawer interface.
type DrawerFunc func(total uint64) uint64

func (f DrawerFunc) Draw(total uint64) uint64 { return f(total) }

// RandomDrawer draws uniformly from the process-wide random source.
func RandomDrawer() Drawer {
	return DrawerFunc(func(total uint64) uint64 {
		return rand.Uint64N(total)
	})
}
