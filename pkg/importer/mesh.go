package importer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/voxline/scenebridge/pkg/scenedata"
)

// primitive is the working form of one glTF primitive between decode and
// flattening. Attribute slices are either nil or one entry per vertex.
type primitive struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	tangents  [][4]float32 // xyz basis vector, w handedness
	indices   []uint32
	indexed   bool // source carried an index accessor
	mode      gltf.PrimitiveMode
}

// decodePrimitive reads a primitive's accessors. It returns (nil, nil) for
// primitives the pipeline discards outright: point/line topologies and
// primitives without positions. Attribute accessors whose element count does
// not match POSITION fail the decode; later pipeline stages index every
// attribute by vertex and rely on the counts lining up.
func decodePrimitive(doc *gltf.Document, prim *gltf.Primitive) (*primitive, error) {
	switch prim.Mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
	default:
		return nil, nil
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok || int(posIdx) >= len(doc.Accessors) {
		return nil, nil
	}

	p := &primitive{mode: prim.Mode}

	var err error
	p.positions, err = modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, errors.Wrap(err, "positions")
	}

	if idx, ok := prim.Attributes["NORMAL"]; ok && int(idx) < len(doc.Accessors) {
		p.normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, errors.Wrap(err, "normals")
		}
		if len(p.normals) != len(p.positions) {
			return nil, errors.Errorf("normal count %d does not match position count %d",
				len(p.normals), len(p.positions))
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok && int(idx) < len(doc.Accessors) {
		p.uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, errors.Wrap(err, "uvs")
		}
		if len(p.uvs) != len(p.positions) {
			return nil, errors.Errorf("uv count %d does not match position count %d",
				len(p.uvs), len(p.positions))
		}
	}
	if idx, ok := prim.Attributes["TANGENT"]; ok && int(idx) < len(doc.Accessors) {
		p.tangents, err = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, errors.Wrap(err, "tangents")
		}
		if len(p.tangents) != len(p.positions) {
			return nil, errors.Errorf("tangent count %d does not match position count %d",
				len(p.tangents), len(p.positions))
		}
	}

	if prim.Indices != nil && int(*prim.Indices) < len(doc.Accessors) {
		p.indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, errors.Wrap(err, "indices")
		}
		p.indexed = true
	}

	return p, nil
}

// buildMesh runs the fixed postprocess pipeline over a decoded primitive and
// flattens it to SOA storage. The pipeline order never changes: triangulate,
// weld unindexed vertices, generate missing normals, build the tangent
// basis, compute bounds. UVs stay as decoded; the import library already
// delivers them with a top-left origin, which is the boundary convention.
func buildMesh(p *primitive, log *zap.Logger) scenedata.Mesh {
	triangulate(p)
	if !p.indexed {
		weld(p)
	}

	// Triangulation should leave only whole triangles behind; any remainder
	// is skipped per face, not treated as an error.
	if rem := len(p.indices) % 3; rem != 0 {
		log.Warn("dropping non-triangle remainder after triangulation",
			zap.Int("indices", len(p.indices)), zap.Int("remainder", rem))
		p.indices = p.indices[:len(p.indices)-rem]
	}

	if len(p.normals) == 0 {
		genFaceNormals(p)
	}
	tangents, bitangents := tangentBasis(p)

	mesh := scenedata.Mesh{
		Positions:  flatten3(p.positions),
		Normals:    flatten3(p.normals),
		Tangents:   flatten3(tangents),
		Bitangents: flatten3(bitangents),
		UVs:        flatten2(p.uvs),
		Indices:    p.indices,
	}
	mesh.BoundsMin, mesh.BoundsMax = bounds(p.positions)
	return mesh
}

// triangulate expands strip and fan topologies into plain triangle lists.
// Unindexed strips and fans pick up sequential indices in the process;
// unindexed triangle lists are left for the weld step to index.
func triangulate(p *primitive) {
	if p.mode == gltf.PrimitiveTriangles {
		return
	}

	src := p.indices
	if src == nil {
		src = make([]uint32, len(p.positions))
		for i := range src {
			src[i] = uint32(i)
		}
	}

	var out []uint32
	switch p.mode {
	case gltf.PrimitiveTriangleStrip:
		// Odd triangles swap their first two corners to keep winding.
		for i := 0; i+2 < len(src); i++ {
			if i%2 == 0 {
				out = append(out, src[i], src[i+1], src[i+2])
			} else {
				out = append(out, src[i+1], src[i], src[i+2])
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(src); i++ {
			out = append(out, src[0], src[i], src[i+1])
		}
	}

	p.indices = out
	p.indexed = true
	p.mode = gltf.PrimitiveTriangles
}

// vertexKey is the exact-match identity of a vertex across all attributes.
type vertexKey struct {
	position [3]float32
	normal   [3]float32
	uv       [2]float32
	tangent  [4]float32
}

// weld merges identical vertices and builds an index buffer, so every mesh
// leaving the pipeline is indexed. Output order follows first occurrence,
// which keeps the conversion deterministic.
func weld(p *primitive) {
	src := p.indices
	if src == nil {
		src = make([]uint32, len(p.positions))
		for i := range src {
			src[i] = uint32(i)
		}
	}

	remap := make(map[vertexKey]uint32, len(src))
	out := &primitive{mode: p.mode, indexed: true}
	for _, vi := range src {
		if int(vi) >= len(p.positions) {
			continue
		}
		key := vertexKey{position: p.positions[vi]}
		if p.normals != nil {
			key.normal = p.normals[vi]
		}
		if p.uvs != nil {
			key.uv = p.uvs[vi]
		}
		if p.tangents != nil {
			key.tangent = p.tangents[vi]
		}

		ni, ok := remap[key]
		if !ok {
			ni = uint32(len(out.positions))
			remap[key] = ni
			out.positions = append(out.positions, p.positions[vi])
			if p.normals != nil {
				out.normals = append(out.normals, p.normals[vi])
			}
			if p.uvs != nil {
				out.uvs = append(out.uvs, p.uvs[vi])
			}
			if p.tangents != nil {
				out.tangents = append(out.tangents, p.tangents[vi])
			}
		}
		out.indices = append(out.indices, ni)
	}

	p.positions = out.positions
	p.normals = out.normals
	p.uvs = out.uvs
	p.tangents = out.tangents
	p.indices = out.indices
	p.indexed = true
}

// genFaceNormals assigns each vertex the normal of a face it belongs to.
// Vertices shared between faces keep the last face's normal; degenerate
// faces contribute nothing.
func genFaceNormals(p *primitive) {
	p.normals = make([][3]float32, len(p.positions))
	for i := 0; i+2 < len(p.indices); i += 3 {
		a, b, c := p.indices[i], p.indices[i+1], p.indices[i+2]
		v0 := mgl32.Vec3(p.positions[a])
		e1 := mgl32.Vec3(p.positions[b]).Sub(v0)
		e2 := mgl32.Vec3(p.positions[c]).Sub(v0)
		n := e1.Cross(e2)
		if n.Len() < 1e-5 {
			continue
		}
		n = n.Normalize()
		p.normals[a] = n
		p.normals[b] = n
		p.normals[c] = n
	}
}

// tangentBasis produces per-vertex tangents and bitangents. Source tangents
// are honored (bitangent reconstructed from the handedness component);
// otherwise the basis is accumulated per triangle from UV gradients and
// orthogonalized against the normal. Meshes without UVs get no basis.
func tangentBasis(p *primitive) (tangents, bitangents [][3]float32) {
	if len(p.normals) == 0 {
		return nil, nil
	}

	if len(p.tangents) > 0 {
		tangents = make([][3]float32, len(p.positions))
		bitangents = make([][3]float32, len(p.positions))
		for i, t := range p.tangents {
			n := mgl32.Vec3(p.normals[i])
			tv := mgl32.Vec3{t[0], t[1], t[2]}
			tangents[i] = tv
			bitangents[i] = n.Cross(tv).Mul(t[3])
		}
		return tangents, bitangents
	}

	if len(p.uvs) == 0 {
		return nil, nil
	}

	tanAcc := make([]mgl32.Vec3, len(p.positions))
	bitanAcc := make([]mgl32.Vec3, len(p.positions))
	for i := 0; i+2 < len(p.indices); i += 3 {
		a, b, c := p.indices[i], p.indices[i+1], p.indices[i+2]
		x1 := mgl32.Vec3(p.positions[b]).Sub(mgl32.Vec3(p.positions[a]))
		x2 := mgl32.Vec3(p.positions[c]).Sub(mgl32.Vec3(p.positions[a]))
		s1 := p.uvs[b][0] - p.uvs[a][0]
		s2 := p.uvs[c][0] - p.uvs[a][0]
		t1 := p.uvs[b][1] - p.uvs[a][1]
		t2 := p.uvs[c][1] - p.uvs[a][1]

		denom := s1*t2 - s2*t1
		if math32.Abs(denom) < 1e-8 {
			continue
		}
		r := 1 / denom
		sdir := x1.Mul(t2).Sub(x2.Mul(t1)).Mul(r)
		tdir := x2.Mul(s1).Sub(x1.Mul(s2)).Mul(r)
		for _, vi := range []uint32{a, b, c} {
			tanAcc[vi] = tanAcc[vi].Add(sdir)
			bitanAcc[vi] = bitanAcc[vi].Add(tdir)
		}
	}

	tangents = make([][3]float32, len(p.positions))
	bitangents = make([][3]float32, len(p.positions))
	for i := range p.positions {
		n := mgl32.Vec3(p.normals[i])
		t := tanAcc[i]

		// Gram-Schmidt against the normal, with a fallback perpendicular
		// for vertices no well-formed triangle touched.
		t = t.Sub(n.Mul(n.Dot(t)))
		if t.Len() < 1e-6 {
			t = perpendicular(n)
		} else {
			t = t.Normalize()
		}

		handedness := float32(1)
		if n.Cross(t).Dot(bitanAcc[i]) < 0 {
			handedness = -1
		}
		tangents[i] = t
		bitangents[i] = n.Cross(t).Mul(handedness)
	}
	return tangents, bitangents
}

// perpendicular returns a unit vector orthogonal to n, built from the axis
// n is least aligned with.
func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n.X()) > math32.Abs(n.Y()) {
		axis = mgl32.Vec3{0, 1, 0}
	}
	v := n.Cross(axis)
	if v.Len() < 1e-6 {
		return mgl32.Vec3{0, 0, 1}
	}
	return v.Normalize()
}

// bounds computes the axis-aligned bounding box over positions.
func bounds(positions [][3]float32) (min, max [3]float32) {
	if len(positions) == 0 {
		return min, max
	}
	min = positions[0]
	max = positions[0]
	for _, pos := range positions[1:] {
		for axis := 0; axis < 3; axis++ {
			if pos[axis] < min[axis] {
				min[axis] = pos[axis]
			}
			if pos[axis] > max[axis] {
				max[axis] = pos[axis]
			}
		}
	}
	return min, max
}

func flatten3(vs [][3]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

func flatten2(vs [][2]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float32, 0, len(vs)*2)
	for _, v := range vs {
		out = append(out, v[0], v[1])
	}
	return out
}
