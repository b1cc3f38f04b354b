// Package importer loads 3D scene files through the glTF import library and
// flattens them into scenedata aggregates: one global mesh list, one global
// material list, and one instance per scene-graph node.
package importer

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/voxline/scenebridge/pkg/scenedata"
)

// Importer converts scene files into scenedata.Scene aggregates. An importer
// is reusable across loads but a single importer must not be used from
// multiple goroutines at once.
type Importer struct {
	log   *zap.Logger
	scene *scenedata.Scene
}

// New returns an importer logging through log. A nil log disables logging.
func New(log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{log: log}
}

// Load imports the scene file at path, replacing any previously loaded scene.
// The new aggregate is built off to the side and swapped in only on success;
// after a failed load the importer holds no scene at all, never a torn one.
func (imp *Importer) Load(path string) error {
	imp.scene = nil

	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "scene file %q", path)
	}
	if !fi.Mode().IsRegular() {
		return errors.Errorf("scene file %q is not a regular file", path)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return errors.Wrapf(err, "importing %q", path)
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return errors.Wrapf(err, "resolving directory of %q", path)
	}

	scene, err := convertDocument(doc, baseDir, imp.log)
	if err != nil {
		return errors.Wrapf(err, "converting %q", path)
	}

	imp.scene = scene
	imp.log.Info("scene loaded",
		zap.String("path", path),
		zap.Int("meshes", len(scene.Meshes)),
		zap.Int("materials", len(scene.Materials)),
		zap.Int("instances", len(scene.Instances)))
	return nil
}

// Loaded reports whether the importer currently holds a scene.
func (imp *Importer) Loaded() bool {
	return imp.scene != nil
}

// Scene returns the loaded scene, or nil when no load has succeeded.
// The returned scene is immutable and safe for concurrent reads.
func (imp *Importer) Scene() *scenedata.Scene {
	return imp.scene
}

// convertDocument flattens a decoded glTF document rooted at baseDir.
func convertDocument(doc *gltf.Document, baseDir string, log *zap.Logger) (*scenedata.Scene, error) {
	if len(doc.Nodes) == 0 {
		return nil, errors.New("scene has no nodes")
	}
	roots, err := sceneRoots(doc)
	if err != nil {
		return nil, err
	}

	scene := &scenedata.Scene{}

	for _, src := range doc.Materials {
		scene.Materials = append(scene.Materials, convertMaterial(doc, src, baseDir))
	}

	// defaultMat is appended lazily for primitives without a material slot.
	defaultMat := -1
	meshRefs := make([][]meshRef, len(doc.Meshes))
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			p, err := decodePrimitive(doc, prim)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
			}
			if p == nil {
				log.Debug("primitive discarded",
					zap.Int("mesh", mi), zap.Int("primitive", pi),
					zap.Int("mode", int(prim.Mode)))
				continue
			}
			converted := buildMesh(p, log)

			// Bound against the source list: scene.Materials may already
			// hold the appended default, which an out-of-range source index
			// must not alias.
			matIdx := defaultMat
			if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
				matIdx = int(*prim.Material)
			} else if matIdx < 0 {
				def := scenedata.DefaultMaterial()
				def.Name = "default"
				scene.Materials = append(scene.Materials, def)
				defaultMat = len(scene.Materials) - 1
				matIdx = defaultMat
			}

			scene.Meshes = append(scene.Meshes, converted)
			meshRefs[mi] = append(meshRefs[mi], meshRef{
				mesh:     uint32(len(scene.Meshes) - 1),
				material: uint32(matIdx),
			})
		}
	}

	scene.Instances = walkNodes(doc, roots, meshRefs)

	if err := scene.Validate(); err != nil {
		return nil, errors.Wrap(err, "converted scene failed validation")
	}
	return scene, nil
}
