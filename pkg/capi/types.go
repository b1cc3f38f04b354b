// Package capi exposes a loaded scene behind an opaque handle with a
// query-allocate-fill access protocol. Everything that crosses this boundary
// is plain fixed-layout data: packed float arrays, fixed 256-byte strings,
// and two-valued results. Callers receive copies; nothing ever references
// handle-owned storage after an accessor returns.
package capi

// StringCapacity is the size of every fixed name/path buffer, including the
// trailing NUL byte.
const StringCapacity = 256

// MaterialOut is the fixed-layout copy of one material record. Matrices and
// colors are packed 32-bit floats; strings are NUL-terminated and silently
// truncated to fit.
type MaterialOut struct {
	Name       [StringCapacity]byte
	BaseColor  [4]float32 // RGBA
	Roughness  float32
	Metallic   float32
	Emissive   [4]float32 // RGBA
	Opacity    float32
	DiffuseMap [StringCapacity]byte
	NormalMap  [StringCapacity]byte
}

// InstanceOut is the fixed-layout copy of one instance record. MeshCount is
// the length callers must allocate for both InstanceRefs output buffers.
type InstanceOut struct {
	Name           [StringCapacity]byte
	WorldTransform [16]float32 // column-major, columns contiguous
	MeshCount      uint32
}

// MeshInfo carries the sizes and attribute flags callers need to allocate
// exact fill buffers: VertexCount*3 floats for positions, normals, tangents
// and bitangents, VertexCount*2 for UVs, IndexCount for indices. Flags are
// 0 or 1 so the struct stays plain data across any binding.
type MeshInfo struct {
	VertexCount uint32
	IndexCount  uint32
	HasNormals  uint32
	HasTangents uint32
	HasUVs      uint32
	Pad         uint32 // keeps the float bounds naturally aligned at 8 fields
	BoundsMin   [3]float32
	BoundsMax   [3]float32
}

// FillBuffers collects the optional output buffers for MeshFillAll. Nil
// members are skipped; non-nil members must be sized per MeshInfo.
type FillBuffers struct {
	Positions  []float32
	Normals    []float32
	Tangents   []float32
	Bitangents []float32
	UVs        []float32
	Indices    []uint32
}

// putString copies src into a fixed buffer with guaranteed NUL termination,
// truncating at StringCapacity-1 bytes. The tail is zeroed so repeated reuse
// of an out struct never leaks a previous longer value.
func putString(dst *[StringCapacity]byte, src string) {
	n := copy(dst[:StringCapacity-1], src)
	for i := n; i < StringCapacity; i++ {
		dst[i] = 0
	}
}
