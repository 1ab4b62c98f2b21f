package skel

import (
	"reflect"
	"testing"
)

// skinPrefix writes a one-bone one-slot document up to the skin block, with
// the given string table.
func skinPrefix(strings ...string) *streamWriter {
	w := &streamWriter{}
	w.header(false)
	w.varUint(uint32(len(strings)))
	for _, s := range strings {
		w.str(s)
	}
	w.varUint(1)
	w.defaultBone("root", 0)
	w.varUint(1)
	w.slot("front", 0)
	w.varUint(0) // ik
	w.varUint(0) // transform
	w.varUint(0) // path
	return w
}

func (w *streamWriter) regionBody(rotation, width, height float32) *streamWriter {
	w.noStr() // path
	for _, v := range []float32{rotation, 0, 0, 1, 1, width, height} {
		w.f32(v)
	}
	w.u32(0xFFFFFFFF)
	return w.boolean(false) // sequence
}

func TestRegionTolerance(t *testing.T) {
	w := skinPrefix("barely", "tilted")
	w.varUint(1) // default skin slots
	w.varUint(0) // slot index
	w.varUint(2) // attachments
	w.varUint(1) // entry "barely"
	w.noStr()
	w.u8(attachmentRegion)
	w.regionBody(0.0005, 64, 32)
	w.varUint(2) // entry "tilted"
	w.noStr()
	w.u8(attachmentRegion)
	w.regionBody(0.01, 64, 32)
	w.varUint(0) // named skins
	w.varUint(0) // events
	w.varUint(0) // animations

	doc := mustDecode(t, w.b)
	if len(doc.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", doc.Diagnostics)
	}
	slot := doc.Skins[0].Attachments["front"]

	barely := slot["barely"].(*RegionAttachment)
	if barely.Rotation != 0 {
		t.Errorf("rotation %v survived tolerance", barely.Rotation)
	}
	tilted := slot["tilted"].(*RegionAttachment)
	if tilted.Rotation != 0.01 {
		t.Errorf("rotation = %v", tilted.Rotation)
	}
	// Dimensions are kept even at zero-adjacent values.
	if tilted.Width != 64 || tilted.Height != 32 {
		t.Errorf("size = %v x %v", tilted.Width, tilted.Height)
	}
}

// meshBody writes a flat two-triangle quad mesh.
func (w *streamWriter) meshBody() *streamWriter {
	w.noStr()         // path
	w.u32(0xFFFFFFFF) // color
	w.varUint(4)      // vertex count
	for _, uv := range []float32{0, 0, 1, 0, 1, 1, 0, 1} {
		w.f32(uv)
	}
	w.varUint(6)
	for _, tri := range []uint16{0, 1, 2, 2, 3, 0} {
		w.u16(tri)
	}
	w.boolean(false) // unweighted
	for _, v := range []float32{-8, -8, 8, -8, 8, 8, -8, 8} {
		w.f32(v)
	}
	w.varUint(4)     // hull
	return w.boolean(false) // sequence
}

func TestLinkedMeshResolution(t *testing.T) {
	w := skinPrefix("quad", "alias", "quad") // entry, entry, parent ref
	w.varUint(1)
	w.varUint(0)
	w.varUint(2)
	w.varUint(1) // "quad"
	w.noStr()
	w.u8(attachmentMesh)
	w.meshBody()
	w.varUint(2) // "alias"
	w.noStr()
	w.u8(attachmentLinkedMesh)
	w.noStr()         // path
	w.u32(0xFFFFFFFF) // color
	w.noStr()         // skin absent -> default
	w.varUint(3)      // parent "quad"
	w.boolean(true)   // timelines
	w.boolean(false)  // sequence
	w.varUint(0)      // named skins
	w.varUint(0)      // events
	w.varUint(0)      // animations

	doc := mustDecode(t, w.b)
	if len(doc.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", doc.Diagnostics)
	}
	slot := doc.Skins[0].Attachments["front"]
	parent := slot["quad"].(*MeshAttachment)
	alias := slot["alias"].(*LinkedMeshAttachment)
	if alias.Parent != "quad" {
		t.Fatalf("parent = %q", alias.Parent)
	}
	if !reflect.DeepEqual(alias.UVs, parent.UVs) {
		t.Errorf("uvs not copied: %v", alias.UVs)
	}
	if !reflect.DeepEqual(alias.Triangles, parent.Triangles) {
		t.Errorf("triangles not copied: %v", alias.Triangles)
	}
	if alias.Hull != 4 {
		t.Errorf("hull = %v", alias.Hull)
	}
	if alias.Timelines != nil {
		t.Errorf("timelines = %v, want omitted at default", *alias.Timelines)
	}
}

func TestUnresolvedLinkedMesh(t *testing.T) {
	w := skinPrefix("alias", "ghost")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.varUint(1) // "alias"
	w.noStr()
	w.u8(attachmentLinkedMesh)
	w.noStr()
	w.u32(0xFFFFFFFF)
	w.noStr()
	w.varUint(2) // parent "ghost", which does not exist
	w.boolean(true)
	w.boolean(false)
	w.varUint(0)
	w.varUint(0)
	w.varUint(0)

	doc := mustDecode(t, w.b)
	if !hasDiagnostic(doc, DiagUnresolvedLinkedMesh) {
		t.Fatalf("diagnostics = %v", doc.Diagnostics)
	}
	alias := doc.Skins[0].Attachments["front"]["alias"].(*LinkedMeshAttachment)
	if len(alias.UVs) != 0 || len(alias.Triangles) != 0 || alias.Hull != 0 {
		t.Errorf("geometry should stay empty: %+v", alias)
	}
}

func TestResolveIdempotent(t *testing.T) {
	w := skinPrefix("quad", "alias", "quad")
	w.varUint(1)
	w.varUint(0)
	w.varUint(2)
	w.varUint(1)
	w.noStr()
	w.u8(attachmentMesh)
	w.meshBody()
	w.varUint(2)
	w.noStr()
	w.u8(attachmentLinkedMesh)
	w.noStr()
	w.u32(0xFFFFFFFF)
	w.noStr()
	w.varUint(3)
	w.boolean(true)
	w.boolean(false)
	w.varUint(0)
	w.varUint(0)
	w.varUint(0)

	doc := mustDecode(t, w.b)
	alias := doc.Skins[0].Attachments["front"]["alias"].(*LinkedMeshAttachment)
	uvs, tris, hull := alias.UVs, alias.Triangles, alias.Hull

	// Re-running the resolve pass over the same reference must not change
	// the outcome or add diagnostics.
	d := &decoder{doc: doc}
	d.linked = []linkedMeshRef{{skin: nil, parent: "quad", target: alias}}
	d.resolveLinkedMeshes()
	if !reflect.DeepEqual(alias.UVs, uvs) || !reflect.DeepEqual(alias.Triangles, tris) || alias.Hull != hull {
		t.Error("second resolve changed geometry")
	}
	if len(doc.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", doc.Diagnostics)
	}
}

func TestWeightedVertices(t *testing.T) {
	w := skinPrefix("hull")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.varUint(1)
	w.noStr()
	w.u8(attachmentBoundingBox)
	w.varUint(2)    // vertex count
	w.boolean(true) // weighted
	// vertex 0: one influence
	w.varUint(1)
	w.varUint(0)
	w.f32(1)
	w.f32(2)
	w.f32(1)
	// vertex 1: two influences
	w.varUint(2)
	w.varUint(0)
	w.f32(3)
	w.f32(4)
	w.f32(0.5)
	w.varUint(0)
	w.f32(5)
	w.f32(6)
	w.f32(0.5)
	w.varUint(0)
	w.varUint(0)
	w.varUint(0)

	doc := mustDecode(t, w.b)
	box := doc.Skins[0].Attachments["front"]["hull"].(*BoundingBoxAttachment)
	want := []float32{1, 0, 1, 2, 1, 2, 0, 3, 4, 0.5, 0, 5, 6, 0.5}
	if !box.Vertices.Weighted || !reflect.DeepEqual(box.Vertices.Values, want) {
		t.Errorf("vertices = %+v", box.Vertices)
	}
}

func TestUnknownAttachmentType(t *testing.T) {
	w := skinPrefix("thing")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.varUint(1)
	w.noStr()
	w.u8(200) // no such tag
	// Anything past the tag never parses; the walk stops here.

	doc := mustDecode(t, w.b)
	if !hasDiagnostic(doc, DiagUnknownAttachmentType) {
		t.Fatalf("diagnostics = %v", doc.Diagnostics)
	}
	placeholder, ok := doc.Skins[0].Attachments["front"]["thing"].(*PlaceholderAttachment)
	if !ok || placeholder.Type != "unknown" {
		t.Errorf("placeholder = %+v", doc.Skins[0].Attachments)
	}
	// Structural sections before the fault are intact.
	if len(doc.Bones) != 1 || len(doc.Slots) != 1 {
		t.Errorf("earlier sections lost: %v bones, %v slots", len(doc.Bones), len(doc.Slots))
	}
}

func TestSequenceStart(t *testing.T) {
	w := skinPrefix("anim")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.varUint(1)
	w.noStr()
	w.u8(attachmentRegion)
	w.noStr()
	for _, v := range []float32{0, 0, 0, 1, 1, 10, 10} {
		w.f32(v)
	}
	w.u32(0xFFFFFFFF)
	w.boolean(true) // sequence present
	w.varUint(8)    // count
	w.varUint(1)    // start at default
	w.varUint(4)    // digits
	w.varUint(2)    // setup
	w.varUint(0)
	w.varUint(0)
	w.varUint(0)

	doc := mustDecode(t, w.b)
	region := doc.Skins[0].Attachments["front"]["anim"].(*RegionAttachment)
	seq := region.Sequence
	if seq == nil || seq.Count != 8 || seq.Digits != 4 || seq.Setup != 2 {
		t.Fatalf("sequence = %+v", seq)
	}
	if seq.Start != nil {
		t.Errorf("start = %v, want omitted at default", *seq.Start)
	}
}
