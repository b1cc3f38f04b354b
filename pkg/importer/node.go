package importer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/voxline/scenebridge/pkg/scenedata"
)

// meshRef binds one converted mesh to the material it is drawn with.
type meshRef struct {
	mesh     uint32
	material uint32
}

// sceneRoots resolves the root node indices to traverse: the default scene's
// nodes when one is set, otherwise every parentless node in the document.
func sceneRoots(doc *gltf.Document) ([]uint32, error) {
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		nodes := doc.Scenes[*doc.Scene].Nodes
		if len(nodes) == 0 {
			return nil, errors.New("default scene has no root node")
		}
		return nodes, nil
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, uint32(i))
		}
	}
	if len(roots) == 0 {
		return nil, errors.New("scene has no root node")
	}
	return roots, nil
}

// walkNodes flattens the node tree breadth-first, producing exactly one
// instance per reachable node. Roots start from the identity transform and
// every child inherits parent_world * local. Nodes are visited at most once,
// so a malformed document with a child cycle terminates instead of looping;
// the first (shallowest) path to a node wins.
func walkNodes(doc *gltf.Document, roots []uint32, meshRefs [][]meshRef) []scenedata.Instance {
	type item struct {
		node   uint32
		parent mgl32.Mat4
	}

	queue := make([]item, 0, len(doc.Nodes))
	for _, r := range roots {
		queue = append(queue, item{node: r, parent: mgl32.Ident4()})
	}

	visited := make([]bool, len(doc.Nodes))
	var instances []scenedata.Instance
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if int(it.node) >= len(doc.Nodes) || visited[it.node] {
			continue
		}
		visited[it.node] = true
		n := doc.Nodes[it.node]

		world := it.parent.Mul4(localTransform(n))

		inst := scenedata.Instance{
			Name:           n.Name,
			WorldTransform: [16]float32(world),
		}
		if n.Mesh != nil && int(*n.Mesh) < len(meshRefs) {
			for _, ref := range meshRefs[*n.Mesh] {
				inst.MeshIndices = append(inst.MeshIndices, ref.mesh)
				inst.MaterialIndices = append(inst.MaterialIndices, ref.material)
			}
		}
		instances = append(instances, inst)

		for _, c := range n.Children {
			queue = append(queue, item{node: c, parent: world})
		}
	}
	return instances
}

// localTransform returns a node's local transform. An explicit matrix wins
// over the TRS triple; absent fields take their glTF defaults.
func localTransform(n *gltf.Node) mgl32.Mat4 {
	var zero [16]float32
	if n.Matrix != zero && n.Matrix != [16]float32(mgl32.Ident4()) {
		return rawMatrix(n.Matrix)
	}

	t := n.Translation
	r := n.Rotation
	if r == ([4]float32{}) {
		r = [4]float32{0, 0, 0, 1}
	}
	s := n.Scale
	if s == ([3]float32{}) {
		s = [3]float32{1, 1, 1}
	}

	quat := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	m := mgl32.Translate3D(t[0], t[1], t[2])
	m = m.Mul4(quat.Mat4())
	m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	return m
}

// rawMatrix copies a source matrix element by element. Both the import
// library and the output convention store columns contiguously, so element
// [c*4+r] of the source is element [c*4+r] of the destination; the copy is
// still done index-wise rather than by reinterpreting the array, so a source
// with a different layout only ever needs this one function changed.
func rawMatrix(src [16]float32) mgl32.Mat4 {
	var dst mgl32.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			dst[c*4+r] = src[c*4+r]
		}
	}
	return dst
}
