package skel

import "encoding/json"

// Document is one fully decoded skeleton file. Optional fields are already
// pruned to their defaults, so a generic omit-empty JSON encoder reproduces
// the reference text format.
type Document struct {
	Skeleton   Header                 `json:"skeleton"`
	Bones      []*Bone                `json:"bones,omitempty"`
	Slots      []*Slot                `json:"slots,omitempty"`
	IK         []*IKConstraint        `json:"ik,omitempty"`
	Transform  []*TransformConstraint `json:"transform,omitempty"`
	Skins      []*Skin                `json:"skins,omitempty"`
	Animations map[string]*Animation  `json:"animations,omitempty"`

	// Diagnostics lists decode faults in the order they occurred. A non-empty
	// list still means a usable (best-effort) document.
	Diagnostics []Diagnostic `json:"-"`
}

type Header struct {
	Hash    string  `json:"hash,omitempty"`
	Version string  `json:"spine,omitempty"`
	Fps     float32 `json:"fps,omitempty"`
	Images  string  `json:"images,omitempty"`
	Audio   string  `json:"audio,omitempty"`
}

type Bone struct {
	Name      string   `json:"name"`
	Parent    string   `json:"parent,omitempty"`
	Length    float32  `json:"length,omitempty"`
	Rotation  float32  `json:"rotation,omitempty"`
	X         float32  `json:"x,omitempty"`
	Y         float32  `json:"y,omitempty"`
	ScaleX    *float32 `json:"scaleX,omitempty"`
	ScaleY    *float32 `json:"scaleY,omitempty"`
	ShearX    float32  `json:"shearX,omitempty"`
	ShearY    float32  `json:"shearY,omitempty"`
	Transform string   `json:"transform,omitempty"`
	Skin      bool     `json:"skin,omitempty"`
	Color     string   `json:"color,omitempty"`
}

type Slot struct {
	Name       string `json:"name"`
	Bone       string `json:"bone"`
	Color      string `json:"color,omitempty"`
	Dark       string `json:"dark,omitempty"`
	Attachment string `json:"attachment,omitempty"`
	Blend      string `json:"blend,omitempty"`
}

type IKConstraint struct {
	Name         string   `json:"name"`
	Order        int      `json:"order,omitempty"`
	Skin         bool     `json:"skin,omitempty"`
	Bones        []string `json:"bones,omitempty"`
	Target       string   `json:"target"`
	Mix          *float32 `json:"mix,omitempty"`
	Softness     float32  `json:"softness,omitempty"`
	BendPositive *bool    `json:"bendPositive,omitempty"`
	Compress     bool     `json:"compress,omitempty"`
	Stretch      bool     `json:"stretch,omitempty"`
	Uniform      bool     `json:"uniform,omitempty"`
}

type TransformConstraint struct {
	Name      string   `json:"name"`
	Order     int      `json:"order,omitempty"`
	Skin      bool     `json:"skin,omitempty"`
	Bones     []string `json:"bones,omitempty"`
	Target    string   `json:"target"`
	Local     bool     `json:"local,omitempty"`
	Relative  bool     `json:"relative,omitempty"`
	Rotation  float32  `json:"rotation,omitempty"`
	X         float32  `json:"x,omitempty"`
	Y         float32  `json:"y,omitempty"`
	ScaleX    float32  `json:"scaleX,omitempty"`
	ScaleY    float32  `json:"scaleY,omitempty"`
	ShearY    float32  `json:"shearY,omitempty"`
	MixRotate *float32 `json:"mixRotate,omitempty"`
	MixX      *float32 `json:"mixX,omitempty"`
	MixY      *float32 `json:"mixY,omitempty"`
	MixScaleX *float32 `json:"mixScaleX,omitempty"`
	MixScaleY *float32 `json:"mixScaleY,omitempty"`
	MixShearY *float32 `json:"mixShearY,omitempty"`
}

// Skin maps slot name -> attachment name -> attachment. Attachment names
// are unique within one slot's map.
type Skin struct {
	Name        string                           `json:"name"`
	Bones       []string                         `json:"bones,omitempty"`
	IK          []string                         `json:"ik,omitempty"`
	Transform   []string                         `json:"transform,omitempty"`
	Attachments map[string]map[string]Attachment `json:"attachments,omitempty"`
}

func (s *Skin) attachment(name string) Attachment {
	for _, slot := range s.Attachments {
		if a, ok := slot[name]; ok {
			return a
		}
	}
	return nil
}

// Attachment is the closed variant set selected by the type tag byte.
type Attachment interface {
	attachmentKind() string
}

type Sequence struct {
	Count  int  `json:"count"`
	Start  *int `json:"start,omitempty"` // default 1
	Digits int  `json:"digits,omitempty"`
	Setup  int  `json:"setup,omitempty"`
}

// VertexBuffer holds one of two shapes behind a single type: flat x,y pairs,
// or the weighted per-vertex encoding flattened to floats (bone count, then
// boneIndex/x/y/weight per influence). Weighted tells which one without
// re-reading the stream.
type VertexBuffer struct {
	Weighted bool
	Values   []float32
}

func (vb VertexBuffer) MarshalJSON() ([]byte, error) {
	if vb.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(vb.Values)
}

type RegionAttachment struct {
	Path     string    `json:"path,omitempty"`
	X        float32   `json:"x,omitempty"`
	Y        float32   `json:"y,omitempty"`
	ScaleX   *float32  `json:"scaleX,omitempty"`
	ScaleY   *float32  `json:"scaleY,omitempty"`
	Rotation float32   `json:"rotation,omitempty"`
	Width    float32   `json:"width"`
	Height   float32   `json:"height"`
	Color    string    `json:"color,omitempty"`
	Sequence *Sequence `json:"sequence,omitempty"`
}

func (*RegionAttachment) attachmentKind() string { return "region" }

type BoundingBoxAttachment struct {
	Type        string       `json:"type"`
	VertexCount int          `json:"vertexCount"`
	Vertices    VertexBuffer `json:"vertices"`
	Color       string       `json:"color,omitempty"`
}

func (*BoundingBoxAttachment) attachmentKind() string { return "boundingbox" }

type MeshAttachment struct {
	Type      string       `json:"type"`
	Path      string       `json:"path,omitempty"`
	Color     string       `json:"color,omitempty"`
	UVs       []float32    `json:"uvs"`
	Triangles []uint16     `json:"triangles"`
	Vertices  VertexBuffer `json:"vertices"`
	Hull      int          `json:"hull,omitempty"`
	Sequence  *Sequence    `json:"sequence,omitempty"`
}

func (*MeshAttachment) attachmentKind() string { return "mesh" }

// LinkedMeshAttachment aliases another mesh's geometry. UVs, Triangles and
// Hull stay empty until the resolver copies them from the parent.
type LinkedMeshAttachment struct {
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	Color     string    `json:"color,omitempty"`
	Skin      string    `json:"skin,omitempty"`
	Parent    string    `json:"parent,omitempty"`
	Timelines *bool     `json:"timelines,omitempty"` // default true
	Sequence  *Sequence `json:"sequence,omitempty"`
	UVs       []float32 `json:"uvs,omitempty"`
	Triangles []uint16  `json:"triangles,omitempty"`
	Hull      int       `json:"hull,omitempty"`
}

func (*LinkedMeshAttachment) attachmentKind() string { return "linkedmesh" }

type PathAttachment struct {
	Type          string       `json:"type"`
	Closed        bool         `json:"closed,omitempty"`
	ConstantSpeed *bool        `json:"constantSpeed,omitempty"` // default true
	VertexCount   int          `json:"vertexCount"`
	Vertices      VertexBuffer `json:"vertices"`
	Lengths       []float32    `json:"lengths"`
	Color         string       `json:"color,omitempty"`
}

func (*PathAttachment) attachmentKind() string { return "path" }

type PointAttachment struct {
	Type     string  `json:"type"`
	X        float32 `json:"x,omitempty"`
	Y        float32 `json:"y,omitempty"`
	Rotation float32 `json:"rotation,omitempty"`
	Color    string  `json:"color,omitempty"`
}

func (*PointAttachment) attachmentKind() string { return "point" }

type ClippingAttachment struct {
	Type        string       `json:"type"`
	End         string       `json:"end,omitempty"`
	VertexCount int          `json:"vertexCount"`
	Vertices    VertexBuffer `json:"vertices"`
	Color       string       `json:"color,omitempty"`
}

func (*ClippingAttachment) attachmentKind() string { return "clipping" }

// PlaceholderAttachment stands in for an unrecognized type tag; only the tag
// survives.
type PlaceholderAttachment struct {
	Type string `json:"type"`
}

func (*PlaceholderAttachment) attachmentKind() string { return "unknown" }
