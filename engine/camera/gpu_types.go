package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// GPUCameraUniformSource declares the WGSL CameraUniform struct. Programs pull it in with
// "//@oxy:include camera" when they are preprocessed.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniformTypeName is the WGSL type declared by GPUCameraUniformSource.
const GPUCameraUniformTypeName = "CameraUniform"

// GPUCameraUniform is the camera block every scene program starts its uniform buffer with.
// Size: 80 bytes.
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset  0: mat4x4<f32>, column major
	Position common.Vec3 // offset 64: vec3<f32> eye position
	_        float32     // offset 76: vec3 padding
}

// Size returns the size of the uniform block in bytes.
//
// Returns:
//   - int: 80
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal appends the block in little-endian layout, ready to be embedded in a larger uniform.
//
// Returns:
//   - []byte: the serialized block
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	for _, v := range g.ViewProj {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	for _, v := range g.Position {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return binary.LittleEndian.AppendUint32(buf, 0)
}
