package scene

import (
	"embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
)

// Programs holds the grid scene's program files: grid.wgsl for the original program backend and
// grid.oxy.wgsl plus its includes for the preprocessed one.
//
//go:embed assets
var programs embed.FS

// GPUSceneUniform is the GPU-aligned representation of the grid scene uniform buffer.
// Matches the WGSL SceneUniform struct layout exactly.
// Size: 96 bytes.
type GPUSceneUniform struct {
	Camera    camera.GPUCameraUniform // offset  0: CameraUniform
	Wireframe uint32                  // offset 80: non-zero draws edges only
	Columns   uint32                  // offset 84: instances per grid row
	Spacing   float32                 // offset 88: distance between grid cells
	Intensity float32                 // offset 92: light intensity, above 1 for HDR output
}

// Size returns the size of the GPUSceneUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPUSceneUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSceneUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSceneUniform) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	buf = append(buf, g.Camera.Marshal()...)
	buf = binary.LittleEndian.AppendUint32(buf, g.Wireframe)
	buf = binary.LittleEndian.AppendUint32(buf, g.Columns)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.Spacing))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.Intensity))
	return buf
}
