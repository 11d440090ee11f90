package tonemap

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUToneMapSource is the WGSL source of the fullscreen tone-map program.
//
//go:embed assets/tonemap.wgsl
var GPUToneMapSource string

// GPUToneMapUniform is the GPU-aligned representation of the tone-map uniform buffer.
// Matches the WGSL ToneMapUniform struct layout exactly (see GPUToneMapSource).
// Size: 16 bytes.
type GPUToneMapUniform struct {
	Operator      uint32  // offset  0: curve selector (Operator)
	ExposureScale float32 // offset  4: linear exposure multiplier
	WhitePoint    float32 // offset  8: white point for the curves that use one
	EncodeSrgb    uint32  // offset 12: 1 when the destination needs sRGB encoding in the shader
}

// Size returns the size of the GPUToneMapUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUToneMapUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUToneMapUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUToneMapUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], g.Operator)
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.ExposureScale))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.WhitePoint))
	binary.LittleEndian.PutUint32(buf[12:], g.EncodeSrgb)
	return buf
}
