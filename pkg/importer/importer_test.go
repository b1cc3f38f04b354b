package importer

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

func u32(v uint32) *uint32 { return &v }

func f32(v float32) *float32 { return &v }

// addQuad appends a unit quad mesh in the XY plane and returns its mesh
// index within the document.
func addQuad(doc *gltf.Document, withNormals, withUVs bool, material *uint32) uint32 {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	attrs := map[string]uint32{
		"POSITION": modeler.WritePosition(doc, positions),
	}
	if withNormals {
		attrs["NORMAL"] = modeler.WriteNormal(doc, [][3]float32{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		})
	}
	if withUVs {
		attrs["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, [][2]float32{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		})
	}
	indices := modeler.WriteIndices(doc, []uint32{0, 1, 2, 0, 2, 3})

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    u32(indices),
			Material:   material,
			Mode:       gltf.PrimitiveTriangles,
		}},
	})
	return uint32(len(doc.Meshes) - 1)
}

// saveDoc writes a document to a temp .gltf file with embedded buffers.
func saveDoc(t *testing.T, doc *gltf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.gltf")
	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
	if err := gltf.Save(doc, path); err != nil {
		t.Fatalf("saving test scene: %v", err)
	}
	return path
}

// testScene builds the canonical fixture: a root with two children, one
// carrying a quad mesh with a named material, one empty.
func testScene(t *testing.T) string {
	doc := gltf.NewDocument()

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: "painted",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{0.8, 0.2, 0.2, 1},
			RoughnessFactor: f32(0.3),
			MetallicFactor:  f32(0.9),
		},
	})
	mesh := addQuad(doc, true, true, u32(0))

	doc.Nodes = append(doc.Nodes,
		&gltf.Node{Name: "root", Translation: [3]float32{1, 2, 3}, Children: []uint32{1, 2}},
		&gltf.Node{Name: "carrier", Translation: [3]float32{10, 0, 0}, Mesh: u32(mesh)},
		&gltf.Node{Name: "empty"},
	)
	doc.Scenes[0].Nodes = []uint32{0}

	return saveDoc(t, doc)
}

func TestLoadMissingFile(t *testing.T) {
	imp := New(nil)
	if err := imp.Load("/nonexistent/scene.gltf"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if imp.Loaded() || imp.Scene() != nil {
		t.Error("failed load must leave no scene behind")
	}
}

func TestLoadDirectory(t *testing.T) {
	imp := New(nil)
	if err := imp.Load(t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gltf")
	if err := os.WriteFile(path, []byte("not a scene"), 0644); err != nil {
		t.Fatal(err)
	}

	imp := New(nil)
	if err := imp.Load(path); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestLoadSceneEndToEnd(t *testing.T) {
	path := testScene(t)

	imp := New(zap.NewNop())
	if err := imp.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	scene := imp.Scene()
	if scene == nil {
		t.Fatal("expected loaded scene")
	}

	if len(scene.Instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(scene.Instances))
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(scene.Meshes))
	}
	if len(scene.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(scene.Materials))
	}

	// BFS discovery order: root first, then its children.
	if scene.Instances[0].Name != "root" ||
		scene.Instances[1].Name != "carrier" ||
		scene.Instances[2].Name != "empty" {
		t.Errorf("unexpected instance order: %q %q %q",
			scene.Instances[0].Name, scene.Instances[1].Name, scene.Instances[2].Name)
	}

	carrier := scene.Instances[1]
	if len(carrier.MeshIndices) != 1 || carrier.MeshIndices[0] != 0 {
		t.Errorf("expected carrier to reference mesh 0, got %v", carrier.MeshIndices)
	}
	if len(carrier.MaterialIndices) != 1 || carrier.MaterialIndices[0] != 0 {
		t.Errorf("expected carrier to reference material 0, got %v", carrier.MaterialIndices)
	}
	if len(scene.Instances[2].MeshIndices) != 0 {
		t.Errorf("empty node must carry no meshes, got %v", scene.Instances[2].MeshIndices)
	}

	if scene.Materials[0].Name != "painted" {
		t.Errorf("expected material name 'painted', got %q", scene.Materials[0].Name)
	}
}

func TestWorldTransformComposition(t *testing.T) {
	path := testScene(t)

	imp := New(nil)
	if err := imp.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	scene := imp.Scene()

	// Root parent is the identity, so its world transform is its local
	// translation. Column-major: translation in elements 12..14.
	root := scene.Instances[0].WorldTransform
	if root[12] != 1 || root[13] != 2 || root[14] != 3 {
		t.Errorf("root translation = (%f,%f,%f), want (1,2,3)", root[12], root[13], root[14])
	}
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			want := float32(0)
			if r == c {
				want = 1
			}
			if root[c*4+r] != want {
				t.Fatalf("root rotation block [%d][%d] = %f", c, r, root[c*4+r])
			}
		}
	}

	// Child world = parent_world * child_local.
	carrier := scene.Instances[1].WorldTransform
	if carrier[12] != 11 || carrier[13] != 2 || carrier[14] != 3 {
		t.Errorf("carrier translation = (%f,%f,%f), want (11,2,3)",
			carrier[12], carrier[13], carrier[14])
	}
}

func TestLoadDeterministic(t *testing.T) {
	path := testScene(t)

	a := New(nil)
	if err := a.Load(path); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	b := New(nil)
	if err := b.Load(path); err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	if !reflect.DeepEqual(a.Scene(), b.Scene()) {
		t.Error("loading the same file twice produced different scenes")
	}
}

func TestReloadClearsPreviousScene(t *testing.T) {
	path := testScene(t)

	imp := New(nil)
	if err := imp.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !imp.Loaded() {
		t.Fatal("expected loaded importer")
	}

	if err := imp.Load("/nonexistent/scene.gltf"); err == nil {
		t.Fatal("expected reload failure")
	}
	if imp.Loaded() || imp.Scene() != nil {
		t.Error("failed reload must not keep the previous scene")
	}
}

func TestConvertDocumentNoNodes(t *testing.T) {
	doc := gltf.NewDocument()
	if _, err := convertDocument(doc, "/", zap.NewNop()); err == nil {
		t.Fatal("expected error for a document without nodes")
	}
}

func TestConvertDocumentNoRoots(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "orphanless"})
	doc.Scenes[0].Nodes = nil

	if _, err := convertDocument(doc, "/", zap.NewNop()); err == nil {
		t.Fatal("expected error when the default scene has no roots")
	}
}

func TestDefaultMaterialForBarePrimitive(t *testing.T) {
	doc := gltf.NewDocument()
	mesh := addQuad(doc, false, false, nil)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "bare", Mesh: u32(mesh)})
	doc.Scenes[0].Nodes = []uint32{0}

	scene, err := convertDocument(doc, "/", zap.NewNop())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if len(scene.Materials) != 1 {
		t.Fatalf("expected synthesized default material, got %d materials", len(scene.Materials))
	}
	if scene.Materials[0].Name != "default" {
		t.Errorf("expected material named 'default', got %q", scene.Materials[0].Name)
	}
	if got := scene.Instances[0].MaterialIndices; len(got) != 1 || got[0] != 0 {
		t.Errorf("expected material ref [0], got %v", got)
	}
}

func TestConvertDocumentAttributeCountMismatch(t *testing.T) {
	tests := []struct {
		name string
		attr func(doc *gltf.Document) (string, uint32)
	}{
		{"short normals", func(doc *gltf.Document) (string, uint32) {
			return "NORMAL", modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}})
		}},
		{"short uvs", func(doc *gltf.Document) (string, uint32) {
			return "TEXCOORD_0", modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}})
		}},
		{"short tangents", func(doc *gltf.Document) (string, uint32) {
			return "TANGENT", modeler.WriteTangent(doc, [][4]float32{{1, 0, 0, 1}})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := gltf.NewDocument()
			attrs := map[string]uint32{
				"POSITION": modeler.WritePosition(doc, [][3]float32{
					{0, 0, 0}, {1, 0, 0}, {1, 1, 0},
				}),
			}
			name, idx := tt.attr(doc)
			attrs[name] = idx

			doc.Meshes = append(doc.Meshes, &gltf.Mesh{
				Primitives: []*gltf.Primitive{{
					Attributes: attrs,
					Mode:       gltf.PrimitiveTriangles,
				}},
			})
			doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "n", Mesh: u32(0)})
			doc.Scenes[0].Nodes = []uint32{0}

			// The mismatch must come back as a load error, never a panic.
			if _, err := convertDocument(doc, "/", zap.NewNop()); err == nil {
				t.Fatal("expected error for attribute count mismatch")
			}
		})
	}
}

func TestConvertDocumentNodeCycle(t *testing.T) {
	t.Run("self referencing", func(t *testing.T) {
		doc := gltf.NewDocument()
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "self", Children: []uint32{0}})
		doc.Scenes[0].Nodes = []uint32{0}

		scene, err := convertDocument(doc, "/", zap.NewNop())
		if err != nil {
			t.Fatalf("convert failed: %v", err)
		}
		if len(scene.Instances) != 1 {
			t.Errorf("instances = %d, want 1", len(scene.Instances))
		}
	})

	t.Run("mutual cycle", func(t *testing.T) {
		doc := gltf.NewDocument()
		doc.Nodes = append(doc.Nodes,
			&gltf.Node{Name: "a", Children: []uint32{1}},
			&gltf.Node{Name: "b", Children: []uint32{0}},
		)
		doc.Scenes[0].Nodes = []uint32{0}

		scene, err := convertDocument(doc, "/", zap.NewNop())
		if err != nil {
			t.Fatalf("convert failed: %v", err)
		}
		if len(scene.Instances) != 2 {
			t.Errorf("instances = %d, want 2", len(scene.Instances))
		}
		if scene.Instances[0].Name != "a" || scene.Instances[1].Name != "b" {
			t.Errorf("unexpected order: %q %q",
				scene.Instances[0].Name, scene.Instances[1].Name)
		}
	})
}

func TestMaterialIndexOutOfRangeTakesDefault(t *testing.T) {
	doc := gltf.NewDocument()
	mesh := addQuad(doc, false, false, u32(7)) // no materials in the document
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "n", Mesh: u32(mesh)})
	doc.Scenes[0].Nodes = []uint32{0}

	scene, err := convertDocument(doc, "/", zap.NewNop())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if len(scene.Materials) != 1 || scene.Materials[0].Name != "default" {
		t.Fatalf("expected only the synthesized default material, got %d", len(scene.Materials))
	}
	if got := scene.Instances[0].MaterialIndices; len(got) != 1 || got[0] != 0 {
		t.Errorf("expected material ref [0], got %v", got)
	}
}

func TestParentlessFallbackRoots(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Scene = nil
	doc.Scenes = nil
	doc.Nodes = append(doc.Nodes,
		&gltf.Node{Name: "a", Children: []uint32{1}},
		&gltf.Node{Name: "b"},
		&gltf.Node{Name: "c"},
	)

	scene, err := convertDocument(doc, "/", zap.NewNop())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if len(scene.Instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(scene.Instances))
	}
	// BFS order over roots a, c then a's child b.
	if scene.Instances[0].Name != "a" || scene.Instances[1].Name != "c" || scene.Instances[2].Name != "b" {
		t.Errorf("unexpected BFS order: %q %q %q",
			scene.Instances[0].Name, scene.Instances[1].Name, scene.Instances[2].Name)
	}
}
