// sceneinfo is a CLI utility for inspecting 3D scene files through the
// scenebridge conversion and handle layers.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/voxline/scenebridge/internal/config"
	"github.com/voxline/scenebridge/internal/logger"
	"github.com/voxline/scenebridge/pkg/capi"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "info":
		cmdInfo(rest, cfg)
	case "meshes":
		cmdMeshes(rest, cfg)
	case "materials", "mats":
		cmdMaterials(rest, cfg)
	case "instances", "nodes":
		cmdInstances(rest, cfg)
	case "validate":
		cmdValidate(rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sceneinfo - 3D scene file inspector

Usage:
  sceneinfo [flags] <command> <file>

Commands:
  info <file>        Show scene summary (counts, totals)
  meshes <file>      List meshes with vertex/index counts and attributes
  materials <file>   List materials with PBR factors and texture paths
  instances <file>   List instances with transforms and mesh references
  validate <file>    Load the scene and report conversion problems

Flags:
  -config <path>     Config file
  -debug             Debug logging
  -log-file <path>   Write logs to a file
  -max-rows <n>      Cap listing output rows

Examples:
  sceneinfo info model.gltf
  sceneinfo -max-rows 20 meshes model.glb
  sceneinfo validate broken.gltf`)
}

// mustLoad loads a scene or exits with the importer diagnostic.
func mustLoad(path string) *capi.Handle {
	h := capi.Load(path)
	if !h.Valid() {
		fmt.Fprintf(os.Stderr, "Error: %s\n", h.Err())
		os.Exit(1)
	}
	return h
}

func requirePath(args []string, command string) string {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: sceneinfo %s <file>\n", command)
		os.Exit(1)
	}
	return args[0]
}

func cmdInfo(args []string, cfg *config.Config) {
	path := requirePath(args, "info")
	h := mustLoad(path)
	defer h.Free()

	var totalVerts, totalTris uint64
	var info capi.MeshInfo
	for i := uint32(0); i < h.MeshCount(); i++ {
		if h.MeshGetInfo(i, &info) {
			totalVerts += uint64(info.VertexCount)
			totalTris += uint64(info.IndexCount / 3)
		}
	}

	fmt.Printf("Scene:     %s\n", path)
	fmt.Printf("Meshes:    %d\n", h.MeshCount())
	fmt.Printf("Materials: %d\n", h.MaterialCount())
	fmt.Printf("Instances: %d\n", h.InstanceCount())
	fmt.Printf("Vertices:  %d\n", totalVerts)
	fmt.Printf("Triangles: %d\n", totalTris)
}

func cmdMeshes(args []string, cfg *config.Config) {
	path := requirePath(args, "meshes")
	h := mustLoad(path)
	defer h.Free()

	fmt.Printf("%-6s %10s %10s  %s\n", "mesh", "vertices", "indices", "attributes")
	var info capi.MeshInfo
	for i := uint32(0); i < h.MeshCount(); i++ {
		if rowLimit(cfg, int(i)) {
			fmt.Println("...")
			break
		}
		if !h.MeshGetInfo(i, &info) {
			continue
		}
		var attrs []string
		if info.HasNormals != 0 {
			attrs = append(attrs, "normals")
		}
		if info.HasTangents != 0 {
			attrs = append(attrs, "tangents")
		}
		if info.HasUVs != 0 {
			attrs = append(attrs, "uvs")
		}
		fmt.Printf("%-6d %10d %10d  %s\n", i, info.VertexCount, info.IndexCount, strings.Join(attrs, ","))
	}
}

func cmdMaterials(args []string, cfg *config.Config) {
	path := requirePath(args, "materials")
	h := mustLoad(path)
	defer h.Free()

	var mat capi.MaterialOut
	for i := uint32(0); i < h.MaterialCount(); i++ {
		if rowLimit(cfg, int(i)) {
			fmt.Println("...")
			break
		}
		if !h.MaterialGet(i, &mat) {
			continue
		}
		fmt.Printf("[%d] %s\n", i, cstr(mat.Name[:]))
		fmt.Printf("    base_color %.3f %.3f %.3f %.3f  rough %.2f  metal %.2f  opacity %.2f\n",
			mat.BaseColor[0], mat.BaseColor[1], mat.BaseColor[2], mat.BaseColor[3],
			mat.Roughness, mat.Metallic, mat.Opacity)
		if d := cstr(mat.DiffuseMap[:]); d != "" {
			fmt.Printf("    diffuse  %s\n", d)
		}
		if n := cstr(mat.NormalMap[:]); n != "" {
			fmt.Printf("    normal   %s\n", n)
		}
	}
}

func cmdInstances(args []string, cfg *config.Config) {
	path := requirePath(args, "instances")
	h := mustLoad(path)
	defer h.Free()

	var inst capi.InstanceOut
	for i := uint32(0); i < h.InstanceCount(); i++ {
		if rowLimit(cfg, int(i)) {
			fmt.Println("...")
			break
		}
		if !h.InstanceGet(i, &inst) {
			continue
		}
		name := cstr(inst.Name[:])
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("[%d] %s  meshes=%d\n", i, name, inst.MeshCount)

		if inst.MeshCount > 0 {
			meshIdx := make([]uint32, inst.MeshCount)
			matIdx := make([]uint32, inst.MeshCount)
			if h.InstanceRefs(i, meshIdx, matIdx) {
				for j := range meshIdx {
					fmt.Printf("    mesh %d -> material %d\n", meshIdx[j], matIdx[j])
				}
			}
		}

		m := inst.WorldTransform
		for r := 0; r < 4; r++ {
			fmt.Printf("    [%8.3f %8.3f %8.3f %8.3f]\n", m[r], m[4+r], m[8+r], m[12+r])
		}
	}
}

func cmdValidate(args []string) {
	path := requirePath(args, "validate")
	h := capi.Load(path)
	defer h.Free()

	if !h.Valid() {
		fmt.Printf("FAIL: %s\n", h.Err())
		os.Exit(1)
	}
	fmt.Printf("OK: %d meshes, %d materials, %d instances\n",
		h.MeshCount(), h.MaterialCount(), h.InstanceCount())
}

// rowLimit reports whether row i exceeds the configured listing cap.
func rowLimit(cfg *config.Config, i int) bool {
	return cfg.Output.MaxRows > 0 && i >= cfg.Output.MaxRows
}

// cstr trims a fixed NUL-terminated buffer to a Go string.
func cstr(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
