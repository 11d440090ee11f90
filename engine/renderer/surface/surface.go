// Package surface owns the off-screen render targets of a frame. A SurfaceSet holds three Surfaces
// sized to the swap chain: the multisampled scene target, its single-sample resolve target and a
// display-format post-process target.
package surface

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
)

// Role identifies what an attachment holds.
type Role int

const (
	// RoleColor0 is the primary HDR color attachment.
	RoleColor0 Role = iota

	// RoleColor1 is the secondary HDR color attachment.
	RoleColor1

	// RoleDepth is the depth attachment of the multisampled surface.
	RoleDepth

	// RoleAux is the single channel color attachment holding resolved depth.
	RoleAux

	// RoleDisplay is the display-format color attachment of the post-process surface.
	RoleDisplay
)

var roleNames = map[Role]string{
	RoleColor0:  "color0",
	RoleColor1:  "color1",
	RoleDepth:   "depth",
	RoleAux:     "aux",
	RoleDisplay: "display",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Attachment is one typed texture of a Surface. The handle is non-owning; the SurfaceSet that
// allocated it releases it.
type Attachment struct {
	Role   Role
	Format renderer.TextureFormat
	Handle resource.Handle
}

// Slot is the layout of one attachment before allocation.
type Slot struct {
	Role   Role
	Format renderer.TextureFormat
}

// Surface is an immutable group of attachments sharing width, height and sample count.
type Surface struct {
	Label       string
	Width       int
	Height      int
	SampleCount uint32
	Attachments []Attachment
}

// Empty reports whether the surface holds no attachments.
func (s Surface) Empty() bool {
	return len(s.Attachments) == 0
}

// Attachment returns the attachment with the given role.
//
// Parameters:
//   - role: the role to look up
//
// Returns:
//   - Attachment: the attachment
//   - bool: false if the surface has no attachment with that role
func (s Surface) Attachment(role Role) (Attachment, bool) {
	for _, a := range s.Attachments {
		if a.Role == role {
			return a, true
		}
	}
	return Attachment{}, false
}

// ColorHandles returns the handles of every non-depth attachment, in attachment order.
func (s Surface) ColorHandles() []resource.Handle {
	handles := make([]resource.Handle, 0, len(s.Attachments))
	for _, a := range s.Attachments {
		if !a.Format.IsDepth() {
			handles = append(handles, a.Handle)
		}
	}
	return handles
}

// DepthHandle returns the depth attachment handle, or resource.InvalidHandle.
func (s Surface) DepthHandle() resource.Handle {
	for _, a := range s.Attachments {
		if a.Format.IsDepth() {
			return a.Handle
		}
	}
	return resource.InvalidHandle
}

// Layouts of the three surfaces.
var (
	MultisampleLayout = []Slot{
		{Role: RoleColor0, Format: renderer.FormatRGBA16Float},
		{Role: RoleColor1, Format: renderer.FormatRGBA16Float},
		{Role: RoleDepth, Format: renderer.FormatDepth32Float},
	}
	ResolvedLayout = []Slot{
		{Role: RoleColor0, Format: renderer.FormatRGBA16Float},
		{Role: RoleColor1, Format: renderer.FormatRGBA16Float},
		{Role: RoleAux, Format: renderer.FormatR32Float},
	}
)
