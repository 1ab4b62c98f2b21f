package skel

import (
	"github.com/pkg/errors"

	"github.com/mogaika/spine_skel_browser/utils"
)

const (
	attachmentRegion      = 0
	attachmentBoundingBox = 1
	attachmentMesh        = 2
	attachmentLinkedMesh  = 3
	attachmentPath        = 4
	attachmentPoint       = 5
	attachmentClipping    = 6
)

// readAttachment decodes one tagged attachment record. The attachment's
// effective name is the optional in-record override, falling back to the
// entry name from the skin map.
func (d *decoder) readAttachment(entryName string, section string) (string, Attachment, error) {
	override, err := d.stringRef(section)
	if err != nil {
		return "", nil, err
	}
	name := entryName
	if override != nil {
		name = *override
	}

	tag, err := d.s.ReadU8()
	if err != nil {
		return "", nil, err
	}
	switch tag {
	case attachmentRegion:
		a, err := d.readRegion(name, section)
		return name, a, err
	case attachmentBoundingBox:
		a, err := d.readBoundingBox(section)
		return name, a, err
	case attachmentMesh:
		a, err := d.readMesh(name, section)
		return name, a, err
	case attachmentLinkedMesh:
		a, err := d.readLinkedMesh(name, section)
		return name, a, err
	case attachmentPath:
		a, err := d.readPathAttachment(section)
		return name, a, err
	case attachmentPoint:
		a, err := d.readPoint(section)
		return name, a, err
	case attachmentClipping:
		a, err := d.readClipping(section)
		return name, a, err
	}
	d.diag(DiagUnknownAttachmentType, section, "Attachment %q has unknown type tag %v", name, tag)
	return name, &PlaceholderAttachment{Type: "unknown"}, errors.Wrapf(errUnknownAttachmentType, "Tag %v", tag)
}

func (d *decoder) readColorHex(def uint32) (string, error) {
	color, err := d.s.ReadU32()
	if err != nil {
		return "", err
	}
	if color == def {
		return "", nil
	}
	return utils.RGBA8(color).HexUpper(), nil
}

func (d *decoder) readRegion(name, section string) (*RegionAttachment, error) {
	path, err := d.stringRef(section)
	if err != nil {
		return nil, err
	}
	a := &RegionAttachment{}
	if utils.Str(path) != "" && utils.Str(path) != name {
		a.Path = utils.Str(path)
	}

	var rotation, x, y, scaleX, scaleY, width, height float32
	for _, dst := range []*float32{&rotation, &x, &y, &scaleX, &scaleY, &width, &height} {
		if *dst, err = d.s.ReadF32(); err != nil {
			return nil, err
		}
	}
	a.Rotation = utils.PruneZero(rotation, utils.TolGeometry)
	a.X = utils.PruneZero(x*d.scale, utils.TolGeometry)
	a.Y = utils.PruneZero(y*d.scale, utils.TolGeometry)
	a.ScaleX = utils.OptFloat(scaleX, 1, utils.TolGeometry)
	a.ScaleY = utils.OptFloat(scaleY, 1, utils.TolGeometry)
	a.Width = width * d.scale
	a.Height = height * d.scale

	if a.Color, err = d.readColorHex(noColor); err != nil {
		return nil, err
	}
	if a.Sequence, err = d.readSequence(); err != nil {
		return nil, err
	}
	return a, nil
}

func (d *decoder) readBoundingBox(section string) (*BoundingBoxAttachment, error) {
	a := &BoundingBoxAttachment{Type: "boundingbox"}
	count, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	a.VertexCount = int(count)
	if a.Vertices, err = d.readVertices(int(count)); err != nil {
		return nil, err
	}
	if d.nonessential {
		if a.Color, err = d.readColorHex(noColor); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (d *decoder) readMesh(name, section string) (*MeshAttachment, error) {
	a := &MeshAttachment{Type: "mesh"}
	path, err := d.stringRef(section)
	if err != nil {
		return nil, err
	}
	if utils.Str(path) != "" && utils.Str(path) != name {
		a.Path = utils.Str(path)
	}
	if a.Color, err = d.readColorHex(noColor); err != nil {
		return nil, err
	}

	vertexCount, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	a.UVs = make([]float32, 2*vertexCount)
	for i := range a.UVs {
		if a.UVs[i], err = d.s.ReadF32(); err != nil {
			return nil, err
		}
	}
	if a.Triangles, err = d.readShortArray(); err != nil {
		return nil, err
	}
	if a.Vertices, err = d.readVertices(int(vertexCount)); err != nil {
		return nil, err
	}

	hull, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	a.Hull = int(hull)
	if a.Sequence, err = d.readSequence(); err != nil {
		return nil, err
	}
	if d.nonessential {
		if _, err := d.readShortArray(); err != nil { // edges
			return nil, err
		}
		if _, err := d.s.ReadVec2(); err != nil { // width, height
			return nil, err
		}
	}
	return a, nil
}

func (d *decoder) readLinkedMesh(name, section string) (*LinkedMeshAttachment, error) {
	a := &LinkedMeshAttachment{Type: "linkedmesh"}
	path, err := d.stringRef(section)
	if err != nil {
		return nil, err
	}
	if utils.Str(path) != "" && utils.Str(path) != name {
		a.Path = utils.Str(path)
	}
	if a.Color, err = d.readColorHex(noColor); err != nil {
		return nil, err
	}

	skin, err := d.stringRef(section)
	if err != nil {
		return nil, err
	}
	parent, err := d.stringRef(section)
	if err != nil {
		return nil, err
	}
	a.Skin = utils.Str(skin)
	a.Parent = utils.Str(parent)

	timelines, err := d.s.ReadBool()
	if err != nil {
		return nil, err
	}
	if !timelines {
		a.Timelines = &timelines
	}
	if a.Sequence, err = d.readSequence(); err != nil {
		return nil, err
	}
	if d.nonessential {
		if _, err := d.s.ReadVec2(); err != nil { // width, height
			return nil, err
		}
	}

	d.linked = append(d.linked, linkedMeshRef{skin: skin, parent: utils.Str(parent), target: a})
	return a, nil
}

func (d *decoder) readPathAttachment(section string) (*PathAttachment, error) {
	a := &PathAttachment{Type: "path"}
	var err error
	if a.Closed, err = d.s.ReadBool(); err != nil {
		return nil, err
	}
	constantSpeed, err := d.s.ReadBool()
	if err != nil {
		return nil, err
	}
	if !constantSpeed {
		a.ConstantSpeed = &constantSpeed
	}

	count, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	a.VertexCount = int(count)
	if a.Vertices, err = d.readVertices(int(count)); err != nil {
		return nil, err
	}
	a.Lengths = make([]float32, count/3)
	for i := range a.Lengths {
		length, err := d.s.ReadF32()
		if err != nil {
			return nil, err
		}
		a.Lengths[i] = length * d.scale
	}
	if d.nonessential {
		if a.Color, err = d.readColorHex(noColor); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (d *decoder) readPoint(section string) (*PointAttachment, error) {
	a := &PointAttachment{Type: "point"}
	var rotation, x, y float32
	var err error
	for _, dst := range []*float32{&rotation, &x, &y} {
		if *dst, err = d.s.ReadF32(); err != nil {
			return nil, err
		}
	}
	a.Rotation = utils.PruneZero(rotation, utils.TolGeometry)
	a.X = utils.PruneZero(x*d.scale, utils.TolGeometry)
	a.Y = utils.PruneZero(y*d.scale, utils.TolGeometry)
	if d.nonessential {
		if a.Color, err = d.readColorHex(noColor); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (d *decoder) readClipping(section string) (*ClippingAttachment, error) {
	a := &ClippingAttachment{Type: "clipping"}
	endSlot, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	a.End = d.slotName(int(endSlot), section)

	count, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	a.VertexCount = int(count)
	if a.Vertices, err = d.readVertices(int(count)); err != nil {
		return nil, err
	}
	if d.nonessential {
		if a.Color, err = d.readColorHex(noColor); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// readVertices decodes the two vertex buffer shapes behind a single leading
// boolean: flat x,y pairs, or per-vertex weighted influence lists.
func (d *decoder) readVertices(vertexCount int) (VertexBuffer, error) {
	weighted, err := d.s.ReadBool()
	if err != nil {
		return VertexBuffer{}, err
	}
	if !weighted {
		values := make([]float32, vertexCount*2)
		for i := range values {
			v, err := d.s.ReadF32()
			if err != nil {
				return VertexBuffer{}, err
			}
			values[i] = v * d.scale
		}
		return VertexBuffer{Values: values}, nil
	}

	values := make([]float32, 0, vertexCount*5)
	for i := 0; i < vertexCount; i++ {
		boneCount, err := d.s.ReadVarUint()
		if err != nil {
			return VertexBuffer{}, err
		}
		values = append(values, float32(boneCount))
		for j := 0; j < int(boneCount); j++ {
			boneIndex, err := d.s.ReadVarUint()
			if err != nil {
				return VertexBuffer{}, err
			}
			x, err := d.s.ReadF32()
			if err != nil {
				return VertexBuffer{}, err
			}
			y, err := d.s.ReadF32()
			if err != nil {
				return VertexBuffer{}, err
			}
			weight, err := d.s.ReadF32()
			if err != nil {
				return VertexBuffer{}, err
			}
			values = append(values, float32(boneIndex), x*d.scale, y*d.scale, weight)
		}
	}
	return VertexBuffer{Weighted: true, Values: values}, nil
}

func (d *decoder) readShortArray() ([]uint16, error) {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	array := make([]uint16, count)
	for i := range array {
		if array[i], err = d.s.ReadU16(); err != nil {
			return nil, err
		}
	}
	return array, nil
}

func (d *decoder) readSequence() (*Sequence, error) {
	present, err := d.s.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var vals [4]uint32 // count, start, digits, setup
	for i := range vals {
		if vals[i], err = d.s.ReadVarUint(); err != nil {
			return nil, err
		}
	}
	seq := &Sequence{Count: int(vals[0]), Digits: int(vals[2]), Setup: int(vals[3])}
	if vals[1] != 1 {
		start := int(vals[1])
		seq.Start = &start
	}
	return seq, nil
}
