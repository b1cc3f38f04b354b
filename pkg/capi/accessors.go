package capi

import "github.com/voxline/scenebridge/pkg/scenedata"

// MaterialGet copies material index into out. It returns false, writing
// nothing, when the handle is invalid, index is out of range, or out is nil.
func (h *Handle) MaterialGet(index uint32, out *MaterialOut) bool {
	s := h.data()
	if s == nil || out == nil || int(index) >= len(s.Materials) {
		return false
	}
	mat := &s.Materials[index]

	putString(&out.Name, mat.Name)
	out.BaseColor = mat.BaseColor
	out.Roughness = mat.Roughness
	out.Metallic = mat.Metallic
	out.Emissive = mat.Emissive
	out.Opacity = mat.Opacity
	putString(&out.DiffuseMap, mat.DiffuseMap)
	putString(&out.NormalMap, mat.NormalMap)
	return true
}

// InstanceGet copies instance index into out. MeshCount in the result is the
// buffer length InstanceRefs requires.
func (h *Handle) InstanceGet(index uint32, out *InstanceOut) bool {
	s := h.data()
	if s == nil || out == nil || int(index) >= len(s.Instances) {
		return false
	}
	inst := &s.Instances[index]

	putString(&out.Name, inst.Name)
	out.WorldTransform = inst.WorldTransform
	out.MeshCount = uint32(len(inst.MeshIndices))
	return true
}

// InstanceRefs copies an instance's aligned mesh and material index arrays
// into the supplied buffers. Either buffer may be nil to skip that array; a
// non-nil buffer shorter than the instance's MeshCount fails the call before
// anything is written.
func (h *Handle) InstanceRefs(index uint32, meshIndices, materialIndices []uint32) bool {
	s := h.data()
	if s == nil || int(index) >= len(s.Instances) {
		return false
	}
	inst := &s.Instances[index]

	if meshIndices != nil && len(meshIndices) < len(inst.MeshIndices) {
		return false
	}
	if materialIndices != nil && len(materialIndices) < len(inst.MaterialIndices) {
		return false
	}
	if meshIndices != nil {
		copy(meshIndices, inst.MeshIndices)
	}
	if materialIndices != nil {
		copy(materialIndices, inst.MaterialIndices)
	}
	return true
}

// MeshGetInfo copies the metadata callers size fill buffers from.
func (h *Handle) MeshGetInfo(index uint32, out *MeshInfo) bool {
	s := h.data()
	if s == nil || out == nil || int(index) >= len(s.Meshes) {
		return false
	}
	mesh := &s.Meshes[index]

	*out = MeshInfo{
		VertexCount: uint32(mesh.VertexCount()),
		IndexCount:  uint32(mesh.IndexCount()),
		HasNormals:  boolFlag(mesh.HasNormals()),
		HasTangents: boolFlag(mesh.HasTangents()),
		HasUVs:      boolFlag(mesh.HasUVs()),
		BoundsMin:   mesh.BoundsMin,
		BoundsMax:   mesh.BoundsMax,
	}
	return true
}

// MeshFillPositions copies the position array, 3 floats per vertex.
func (h *Handle) MeshFillPositions(index uint32, out []float32) bool {
	return h.fillFloats(index, out, func(m *scenedata.Mesh) []float32 { return m.Positions })
}

// MeshFillNormals copies the normal array; fails when HasNormals is unset.
func (h *Handle) MeshFillNormals(index uint32, out []float32) bool {
	return h.fillFloats(index, out, func(m *scenedata.Mesh) []float32 { return m.Normals })
}

// MeshFillTangents copies the tangent array; fails when HasTangents is unset.
func (h *Handle) MeshFillTangents(index uint32, out []float32) bool {
	return h.fillFloats(index, out, func(m *scenedata.Mesh) []float32 { return m.Tangents })
}

// MeshFillBitangents copies the bitangent array; present exactly when
// tangents are.
func (h *Handle) MeshFillBitangents(index uint32, out []float32) bool {
	return h.fillFloats(index, out, func(m *scenedata.Mesh) []float32 { return m.Bitangents })
}

// MeshFillUVs copies the UV array, 2 floats per vertex; fails when HasUVs is
// unset.
func (h *Handle) MeshFillUVs(index uint32, out []float32) bool {
	return h.fillFloats(index, out, func(m *scenedata.Mesh) []float32 { return m.UVs })
}

// MeshFillIndices copies the triangle index array.
func (h *Handle) MeshFillIndices(index uint32, out []uint32) bool {
	s := h.data()
	if s == nil || out == nil || int(index) >= len(s.Meshes) {
		return false
	}
	src := s.Meshes[index].Indices
	if len(out) < len(src) {
		return false
	}
	copy(out, src)
	return true
}

// MeshFillAll performs every requested copy for one mesh in a single call.
// Nil buffers are skipped. The call validates every requested attribute and
// buffer length up front and fails without writing when any of them cannot
// be served, so callers never have to guess which buffers were touched.
func (h *Handle) MeshFillAll(index uint32, bufs FillBuffers) bool {
	s := h.data()
	if s == nil || int(index) >= len(s.Meshes) {
		return false
	}
	mesh := &s.Meshes[index]

	requests := []struct {
		dst []float32
		src []float32
	}{
		{bufs.Positions, mesh.Positions},
		{bufs.Normals, mesh.Normals},
		{bufs.Tangents, mesh.Tangents},
		{bufs.Bitangents, mesh.Bitangents},
		{bufs.UVs, mesh.UVs},
	}
	for _, req := range requests {
		if req.dst == nil {
			continue
		}
		if len(req.src) == 0 || len(req.dst) < len(req.src) {
			return false
		}
	}
	if bufs.Indices != nil && len(bufs.Indices) < len(mesh.Indices) {
		return false
	}

	for _, req := range requests {
		if req.dst != nil {
			copy(req.dst, req.src)
		}
	}
	if bufs.Indices != nil {
		copy(bufs.Indices, mesh.Indices)
	}
	return true
}

func (h *Handle) fillFloats(index uint32, out []float32, pick func(*scenedata.Mesh) []float32) bool {
	s := h.data()
	if s == nil || out == nil || int(index) >= len(s.Meshes) {
		return false
	}
	src := pick(&s.Meshes[index])
	if len(src) == 0 || len(out) < len(src) {
		return false
	}
	copy(out, src)
	return true
}

func boolFlag(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
