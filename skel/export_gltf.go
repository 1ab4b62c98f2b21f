package skel

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/spine_skel_browser/config"
	"github.com/mogaika/spine_skel_browser/utils"
)

// ExportGLTF writes the setup pose of one skin as binary glTF: every region
// and mesh attachment becomes a triangle primitive with world-space
// positions and texture coordinates. Skeleton animation is not exported.
func (d *Document) ExportGLTF(w io.Writer, skinName string) error {
	var skin *Skin
	for _, s := range d.Skins {
		if s.Name == skinName {
			skin = s
			break
		}
	}
	if skin == nil {
		return errors.Errorf("No skin %q in document", skinName)
	}

	worlds := d.boneWorldTransforms()
	boneIndex := make(map[string]int, len(d.Bones))
	for i, b := range d.Bones {
		boneIndex[b.Name] = i
	}

	doc := gltf.NewDocument()
	for _, slot := range d.Slots {
		attachments := skin.Attachments[slot.Name]
		if len(attachments) == 0 {
			continue
		}
		world := mgl32.Ident3()
		if bi, ok := boneIndex[slot.Bone]; ok {
			world = worlds[bi]
		}
		for name, attachment := range attachments {
			var positions [][3]float32
			var uvs [][2]float32
			var indices []uint32
			var color string

			switch a := attachment.(type) {
			case *RegionAttachment:
				positions, uvs, indices = regionGeometry(a, world)
				color = a.Color
			case *MeshAttachment:
				positions = meshPositions(a.Vertices, world, worlds)
				uvs, indices = meshSurface(a.UVs, a.Triangles)
				color = a.Color
			case *LinkedMeshAttachment:
				// Only resolvable after the linked mesh pass; an unresolved
				// alias has no triangles and is skipped below.
				uvs, indices = meshSurface(a.UVs, a.Triangles)
				color = a.Color
				if parentSkin := d.skinByName(a.Skin); parentSkin != nil {
					if parent, ok := parentSkin.attachment(a.Parent).(*MeshAttachment); ok {
						positions = meshPositions(parent.Vertices, world, worlds)
					}
				}
			default:
				continue
			}
			if len(positions) == 0 || len(indices) == 0 {
				continue
			}

			primitive := &gltf.Primitive{
				Attributes: map[string]uint32{
					"POSITION":   modeler.WritePosition(doc, positions),
					"TEXCOORD_0": modeler.WriteTextureCoord(doc, uvs),
				},
				Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
			}
			if packed, ok := utils.ParseHex(color); ok {
				factor := new([4]float32)
				*factor = [4]float32(utils.NewColorFloat(packed))
				doc.Materials = append(doc.Materials, &gltf.Material{
					Name:        slot.Name + "/" + name,
					DoubleSided: true,
					PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
						BaseColorFactor: factor,
					},
				})
				primitive.Material = gltf.Index(uint32(len(doc.Materials) - 1))
			}

			mesh := &gltf.Mesh{
				Name:       slot.Name + "/" + name,
				Primitives: []*gltf.Primitive{primitive},
			}
			doc.Meshes = append(doc.Meshes, mesh)
			doc.Nodes = append(doc.Nodes, &gltf.Node{
				Name: mesh.Name,
				Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
			})
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

func (d *Document) skinByName(name string) *Skin {
	if name == "" {
		name = config.DefaultSkinName
	}
	for _, s := range d.Skins {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// boneWorldTransforms flattens the bone hierarchy into world-space 2D affine
// matrices, in bone table order. Parents always precede children, so a
// single pass suffices.
func (d *Document) boneWorldTransforms() []mgl32.Mat3 {
	worlds := make([]mgl32.Mat3, len(d.Bones))
	index := make(map[string]int, len(d.Bones))
	for i, b := range d.Bones {
		local := mgl32.Translate2D(b.X, b.Y).
			Mul3(mgl32.HomogRotate2D(mgl32.DegToRad(b.Rotation))).
			Mul3(mgl32.Scale2D(scaleOr1(b.ScaleX), scaleOr1(b.ScaleY)))
		if parent, ok := index[b.Parent]; ok {
			worlds[i] = worlds[parent].Mul3(local)
		} else {
			worlds[i] = local
		}
		index[b.Name] = i
	}
	return worlds
}

func scaleOr1(s *float32) float32 {
	if s == nil {
		return 1
	}
	return *s
}

func transformPoint(m mgl32.Mat3, x, y float32) [3]float32 {
	v := m.Mul3x1(mgl32.Vec3{x, y, 1})
	return [3]float32{v.X(), v.Y(), 0}
}

func regionGeometry(a *RegionAttachment, world mgl32.Mat3) ([][3]float32, [][2]float32, []uint32) {
	local := world.
		Mul3(mgl32.Translate2D(a.X, a.Y)).
		Mul3(mgl32.HomogRotate2D(mgl32.DegToRad(a.Rotation))).
		Mul3(mgl32.Scale2D(scaleOr1(a.ScaleX), scaleOr1(a.ScaleY)))

	hw, hh := a.Width/2, a.Height/2
	positions := [][3]float32{
		transformPoint(local, -hw, -hh),
		transformPoint(local, hw, -hh),
		transformPoint(local, hw, hh),
		transformPoint(local, -hw, hh),
	}
	uvs := [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	indices := []uint32{0, 1, 2, 2, 3, 0}
	return positions, uvs, indices
}

// meshPositions resolves both vertex buffer shapes to world space. Weighted
// buffers blend each influence through its own bone transform.
func meshPositions(vb VertexBuffer, world mgl32.Mat3, worlds []mgl32.Mat3) [][3]float32 {
	if !vb.Weighted {
		positions := make([][3]float32, len(vb.Values)/2)
		for i := range positions {
			positions[i] = transformPoint(world, vb.Values[i*2], vb.Values[i*2+1])
		}
		return positions
	}

	var positions [][3]float32
	values := vb.Values
	for len(values) > 0 {
		influences := int(values[0])
		values = values[1:]
		if len(values) < influences*4 {
			break
		}
		var wx, wy float32
		for i := 0; i < influences; i++ {
			bone, x, y, weight := int(values[0]), values[1], values[2], values[3]
			values = values[4:]
			if bone < 0 || bone >= len(worlds) {
				continue
			}
			p := worlds[bone].Mul3x1(mgl32.Vec3{x, y, 1})
			wx += p.X() * weight
			wy += p.Y() * weight
		}
		positions = append(positions, [3]float32{wx, wy, 0})
	}
	return positions
}

func meshSurface(flatUVs []float32, triangles []uint16) ([][2]float32, []uint32) {
	uvs := make([][2]float32, len(flatUVs)/2)
	for i := range uvs {
		uvs[i] = [2]float32{flatUVs[i*2], flatUVs[i*2+1]}
	}
	indices := make([]uint32, len(triangles))
	for i, t := range triangles {
		indices[i] = uint32(t)
	}
	return uvs, indices
}
