// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Color is a linear RGBA color used for clear values and tone-map parameters.
type Color struct {
	R, G, B, A float32
}

// Extent is a pixel size of a surface or swap chain.
type Extent struct {
	Width  int
	Height int
}

// Valid reports whether both dimensions are strictly positive.
//
// Returns:
//   - bool: true if Width > 0 and Height > 0
func (e Extent) Valid() bool {
	return e.Width > 0 && e.Height > 0
}

// Aspect returns Width / Height. The caller must check Valid first.
//
// Returns:
//   - float32: the aspect ratio
func (e Extent) Aspect() float32 {
	return float32(e.Width) / float32(e.Height)
}
