// Package scenedata defines the flat, renderer-ready representation of an
// imported 3D scene: structure-of-arrays meshes, PBR materials, and node
// instances with baked world transforms.
package scenedata

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrVertexCountMismatch = errors.New("attribute length does not match vertex count")
	ErrIndexNotTriangles   = errors.New("index count is not a multiple of 3")
	ErrIndexOutOfRange     = errors.New("index references a vertex out of range")
	ErrMeshRefOutOfRange   = errors.New("instance references a mesh out of range")
	ErrMatRefOutOfRange    = errors.New("instance references a material out of range")
	ErrRefCountMismatch    = errors.New("instance mesh/material reference counts differ")
)

// Mesh holds one triangle mesh in structure-of-arrays layout.
// Positions is always present (3 floats per vertex). Normals, Tangents and
// Bitangents are either empty or exactly as long as Positions. UVs is either
// empty or 2 floats per vertex. Indices holds triangle corners only.
type Mesh struct {
	Positions  []float32
	Normals    []float32
	Tangents   []float32
	Bitangents []float32
	UVs        []float32
	Indices    []uint32

	// Axis-aligned bounds over Positions, zero for empty meshes.
	BoundsMin [3]float32
	BoundsMax [3]float32
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// IndexCount returns the number of triangle corner indices.
func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// HasNormals reports whether per-vertex normals are present.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0
}

// HasTangents reports whether a tangent basis is present.
func (m *Mesh) HasTangents() bool {
	return len(m.Tangents) > 0
}

// HasUVs reports whether a first UV channel is present.
func (m *Mesh) HasUVs() bool {
	return len(m.UVs) > 0
}

// Validate checks the SOA invariants of a single mesh.
func (m *Mesh) Validate() error {
	vc := m.VertexCount()
	if len(m.Positions) != vc*3 {
		return fmt.Errorf("positions: %w", ErrVertexCountMismatch)
	}
	if len(m.Normals) != 0 && len(m.Normals) != vc*3 {
		return fmt.Errorf("normals: %w", ErrVertexCountMismatch)
	}
	if len(m.Tangents) != 0 && len(m.Tangents) != vc*3 {
		return fmt.Errorf("tangents: %w", ErrVertexCountMismatch)
	}
	if len(m.Bitangents) != 0 && len(m.Bitangents) != vc*3 {
		return fmt.Errorf("bitangents: %w", ErrVertexCountMismatch)
	}
	if len(m.UVs) != 0 && len(m.UVs) != vc*2 {
		return fmt.Errorf("uvs: %w", ErrVertexCountMismatch)
	}
	if len(m.Indices)%3 != 0 {
		return ErrIndexNotTriangles
	}
	for _, idx := range m.Indices {
		if int(idx) >= vc {
			return fmt.Errorf("index %d: %w", idx, ErrIndexOutOfRange)
		}
	}
	return nil
}

// Material holds one PBR material. Texture fields are absolute filesystem
// paths, empty when the source has no texture or the texture is embedded.
type Material struct {
	Name       string
	BaseColor  [4]float32 // RGBA
	Roughness  float32    // [0,1]
	Metallic   float32    // [0,1]
	Emissive   [4]float32 // RGBA
	Opacity    float32    // 1 = opaque
	DiffuseMap string
	NormalMap  string
}

// DefaultMaterial returns the PBR-neutral material used when a source
// material lacks a field: white base color, mid roughness, dielectric,
// no emission, fully opaque.
func DefaultMaterial() Material {
	return Material{
		BaseColor: [4]float32{1, 1, 1, 1},
		Roughness: 0.5,
		Metallic:  0,
		Emissive:  [4]float32{0, 0, 0, 1},
		Opacity:   1,
	}
}

// Instance is one node of the flattened scene graph. MeshIndices and
// MaterialIndices are index-aligned: entry i means "draw mesh MeshIndices[i]
// with material MaterialIndices[i]". Both may be empty for grouping nodes.
type Instance struct {
	Name            string
	WorldTransform  [16]float32 // column-major 4x4, cumulative from the root
	MeshIndices     []uint32
	MaterialIndices []uint32
}

// Scene owns all imported data. It is created once per successful load and
// never mutated afterwards, so concurrent reads need no synchronization.
type Scene struct {
	Meshes    []Mesh     // index is the global mesh id
	Materials []Material // index is the global material id
	Instances []Instance // breadth-first discovery order from the root
}

// Validate checks every mesh invariant and every instance reference.
func (s *Scene) Validate() error {
	for i := range s.Meshes {
		if err := s.Meshes[i].Validate(); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	for i := range s.Instances {
		inst := &s.Instances[i]
		if len(inst.MeshIndices) != len(inst.MaterialIndices) {
			return fmt.Errorf("instance %d: %w", i, ErrRefCountMismatch)
		}
		for _, mi := range inst.MeshIndices {
			if int(mi) >= len(s.Meshes) {
				return fmt.Errorf("instance %d: %w", i, ErrMeshRefOutOfRange)
			}
		}
		for _, mi := range inst.MaterialIndices {
			if int(mi) >= len(s.Materials) {
				return fmt.Errorf("instance %d: %w", i, ErrMatRefOutOfRange)
			}
		}
	}
	return nil
}

// Identity returns the identity transform in the scene's column-major layout.
func Identity() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
