package capi

import (
	"go.uber.org/zap"

	"github.com/voxline/scenebridge/pkg/importer"
	"github.com/voxline/scenebridge/pkg/scenedata"
)

// Handle wraps one loaded scene. A handle is returned by Load even when the
// load fails; check Valid or Err rather than nil-ness. All read accessors are
// safe on nil, freed, and failed handles, and a loaded handle may be read
// from any number of goroutines concurrently. Load and Free are not safe to
// race against readers of the same handle.
type Handle struct {
	scene *scenedata.Scene
	err   string
}

// Load imports the scene file at path and returns a handle to it. The
// returned handle is never nil: on failure it is invalid, reports zero
// counts, and carries the importer's diagnostic in Err.
func Load(path string) *Handle {
	return LoadWithLogger(path, nil)
}

// LoadWithLogger is Load with an explicit logger for import diagnostics.
func LoadWithLogger(path string, log *zap.Logger) *Handle {
	h := &Handle{}
	imp := importer.New(log)
	if err := imp.Load(path); err != nil {
		h.err = err.Error()
		return h
	}
	h.scene = imp.Scene()
	return h
}

// Free releases the handle's scene storage. It is a no-op on nil or already
// freed handles. Copies previously handed to callers stay valid; only the
// handle-owned source data is dropped.
func (h *Handle) Free() {
	if h == nil {
		return
	}
	h.scene = nil
}

// Valid reports whether the handle holds a loaded scene.
func (h *Handle) Valid() bool {
	return h != nil && h.scene != nil
}

// Err returns the load diagnostic, or the empty string when the load
// succeeded.
func (h *Handle) Err() string {
	if h == nil {
		return ""
	}
	return h.err
}

// data returns the scene when the handle is usable, else nil.
func (h *Handle) data() *scenedata.Scene {
	if h == nil {
		return nil
	}
	return h.scene
}

// MeshCount returns the number of meshes, 0 for invalid handles.
func (h *Handle) MeshCount() uint32 {
	if s := h.data(); s != nil {
		return uint32(len(s.Meshes))
	}
	return 0
}

// MaterialCount returns the number of materials, 0 for invalid handles.
func (h *Handle) MaterialCount() uint32 {
	if s := h.data(); s != nil {
		return uint32(len(s.Materials))
	}
	return 0
}

// InstanceCount returns the number of instances, 0 for invalid handles.
func (h *Handle) InstanceCount() uint32 {
	if s := h.data(); s != nil {
		return uint32(len(s.Instances))
	}
	return 0
}
