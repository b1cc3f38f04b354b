package importer

import (
	"net/url"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/voxline/scenebridge/pkg/scenedata"
)

// convertMaterial maps one source material onto the flat PBR record. Every
// field is fetched independently; anything the source lacks keeps the
// PBR-neutral default, never an error.
func convertMaterial(doc *gltf.Document, src *gltf.Material, baseDir string) scenedata.Material {
	mat := scenedata.DefaultMaterial()
	mat.Name = src.Name

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			mat.BaseColor = *pbr.BaseColorFactor
		}
		if pbr.RoughnessFactor != nil {
			mat.Roughness = *pbr.RoughnessFactor
		}
		if pbr.MetallicFactor != nil {
			mat.Metallic = *pbr.MetallicFactor
		}
		if pbr.BaseColorTexture != nil {
			mat.DiffuseMap = texturePath(doc, pbr.BaseColorTexture.Index, baseDir)
		}
	}

	ef := src.EmissiveFactor
	mat.Emissive = [4]float32{ef[0], ef[1], ef[2], 1}

	// Opacity rides on the base color alpha, but only blended materials are
	// actually translucent.
	if src.AlphaMode == gltf.AlphaBlend {
		mat.Opacity = mat.BaseColor[3]
	}

	if src.NormalTexture != nil && src.NormalTexture.Index != nil {
		mat.NormalMap = texturePath(doc, *src.NormalTexture.Index, baseDir)
	}

	return mat
}

// texturePath resolves a texture slot to an absolute filesystem path.
// Slots without a backing image file, including embedded and in-buffer
// images, resolve to the empty string.
func texturePath(doc *gltf.Document, texIdx uint32, baseDir string) string {
	if int(texIdx) >= len(doc.Textures) {
		return ""
	}
	tex := doc.Textures[texIdx]
	if tex.Source == nil || int(*tex.Source) >= len(doc.Images) {
		return ""
	}
	img := doc.Images[*tex.Source]
	if img.URI == "" || img.BufferView != nil || img.IsEmbeddedResource() {
		return ""
	}

	uri := img.URI
	if unescaped, err := url.PathUnescape(uri); err == nil {
		uri = unescaped
	}

	path := filepath.Join(baseDir, filepath.FromSlash(uri))
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
