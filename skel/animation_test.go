package skel

import (
	"encoding/json"
	"reflect"
	"testing"
)

// animPrefix writes a one-bone one-slot document with the given string table,
// an empty skin block, no events, and opens an animation list of one.
func animPrefix(name string, strings ...string) *streamWriter {
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
	w.varUint(0) // default skin slots
	w.varUint(0) // named skins
	w.varUint(0) // events
	w.varUint(1) // animations
	return w.str(name)
}

// animTail closes an animation whose remaining timeline groups are empty,
// starting from the given group.
func (w *streamWriter) animTail(fromGroup int) *streamWriter {
	for i := fromGroup; i < 8; i++ {
		w.varUint(0)
	}
	return w
}

func TestTranslateTimeline(t *testing.T) {
	w := animPrefix("walk")
	w.varUint(0) // slot groups
	w.varUint(1) // bone groups
	w.varUint(0) // bone index
	w.varUint(1) // timelines
	w.u8(boneTimelineTranslate)
	w.varUint(2)
	w.f32(0).f32(0).f32(5)     // frame 0
	w.f32(0.5).f32(2).f32(0)   // frame 1
	w.u8(curveLinear)
	w.animTail(2)

	doc := mustDecode(t, w.b)
	anim := doc.Animations["walk"]
	if anim == nil {
		t.Fatalf("animations = %v", doc.Animations)
	}
	frames := anim.Bones["root"].Translate
	if len(frames) != 2 {
		t.Fatalf("frames = %+v", frames)
	}

	f0 := frames[0]
	if f0.Time != nil {
		t.Errorf("frame 0 time = %v, want omitted", *f0.Time)
	}
	if f0.X != nil {
		t.Errorf("frame 0 x = %v, want omitted at default", *f0.X)
	}
	if f0.Y == nil || *f0.Y != 5 {
		t.Errorf("frame 0 y = %v", f0.Y)
	}
	if f0.Curve != nil {
		t.Errorf("frame 0 curve = %+v", f0.Curve)
	}

	f1 := frames[1]
	if f1.Time == nil || *f1.Time != 0.5 {
		t.Errorf("frame 1 time = %v", f1.Time)
	}
	if f1.X == nil || *f1.X != 2 {
		t.Errorf("frame 1 x = %v", f1.X)
	}
	if f1.Y != nil {
		t.Errorf("frame 1 y = %v, want omitted", *f1.Y)
	}
}

func TestScaleTimelineDefaults(t *testing.T) {
	w := animPrefix("pulse")
	w.varUint(0)
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(boneTimelineScale)
	w.varUint(1)
	w.f32(0).f32(1).f32(1.25) // scale defaults to 1, not 0
	w.animTail(2)

	doc := mustDecode(t, w.b)
	f := doc.Animations["pulse"].Bones["root"].Scale[0]
	if f.X != nil {
		t.Errorf("x = %v, want omitted at scale default", *f.X)
	}
	if f.Y == nil || *f.Y != 1.25 {
		t.Errorf("y = %v", f.Y)
	}
}

func TestRotateBezier(t *testing.T) {
	w := animPrefix("spin")
	w.varUint(0)
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(boneTimelineRotate)
	w.varUint(2)
	w.f32(0).f32(45)
	w.f32(1).f32(90)
	w.u8(curveBezier)
	for _, v := range []float32{0.25, 50, 0.75, 85} {
		w.f32(v)
	}
	w.animTail(2)

	doc := mustDecode(t, w.b)
	frames := doc.Animations["spin"].Bones["root"].Rotate
	curve := frames[0].Curve
	if curve == nil || curve.Stepped {
		t.Fatalf("curve = %+v", curve)
	}
	want := []float32{0.25, 50, 0.75, 85}
	if !reflect.DeepEqual(curve.Bezier, want) {
		t.Errorf("bezier = %v", curve.Bezier)
	}
	if frames[1].Curve != nil {
		t.Errorf("last frame carries a curve: %+v", frames[1].Curve)
	}
}

func TestTranslateBezier(t *testing.T) {
	w := animPrefix("slide")
	w.varUint(0)
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(boneTimelineTranslate)
	w.varUint(2)
	w.f32(0).f32(0).f32(0)
	w.f32(1).f32(10).f32(20)
	w.u8(curveBezier)
	bezier := []float32{0.25, 2.5, 0.75, 7.5, 0.25, 5, 0.75, 15}
	for _, v := range bezier {
		w.f32(v)
	}
	w.animTail(2)

	doc := mustDecode(t, w.b)
	frames := doc.Animations["slide"].Bones["root"].Translate
	curve := frames[0].Curve
	if curve == nil || len(curve.Bezier) != 8 {
		t.Fatalf("curve = %+v", curve)
	}
	if !reflect.DeepEqual(curve.Bezier, bezier) {
		t.Errorf("bezier = %v", curve.Bezier)
	}
	if frames[1].X == nil || *frames[1].X != 10 {
		t.Errorf("frame 1 x = %v", frames[1].X)
	}
}

func TestColorBezier(t *testing.T) {
	w := animPrefix("glow")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(slotTimelineRGBA)
	w.varUint(2)
	w.f32(0)
	w.u8(0xFF).u8(0xFF).u8(0xFF).u8(0xFF)
	w.f32(1)
	w.u8(0x20).u8(0x40).u8(0x60).u8(0x80)
	w.u8(curveBezier)
	bezier := make([]float32, 16) // 4 floats per color channel
	for i := range bezier {
		bezier[i] = float32(i) / 16
		w.f32(bezier[i])
	}
	w.animTail(1)

	doc := mustDecode(t, w.b)
	frames := doc.Animations["glow"].Slots["front"].RGBA
	curve := frames[0].Curve
	if curve == nil || len(curve.Bezier) != 16 {
		t.Fatalf("curve = %+v", curve)
	}
	if !reflect.DeepEqual(curve.Bezier, bezier) {
		t.Errorf("bezier = %v", curve.Bezier)
	}
	if frames[1].Color != "20406080" {
		t.Errorf("frame 1 color = %q", frames[1].Color)
	}
}

func TestCurveJSON(t *testing.T) {
	stepped, err := json.Marshal(&Curve{Stepped: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(stepped) != `"stepped"` {
		t.Errorf("stepped = %s", stepped)
	}
	bezier, err := json.Marshal(&Curve{Bezier: []float32{0.25, 1, 0.75, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if string(bezier) != `[0.25,1,0.75,2]` {
		t.Errorf("bezier = %s", bezier)
	}
}

func TestSlotColorTimelines(t *testing.T) {
	w := animPrefix("flash")
	w.varUint(1) // slot groups
	w.varUint(0) // slot index
	w.varUint(2) // timelines
	w.u8(slotTimelineRGBA)
	w.varUint(1)
	w.f32(0)
	w.u8(0xFF).u8(0x00).u8(0xAA).u8(0x80)
	w.u8(slotTimelineRGB)
	w.varUint(1)
	w.f32(0)
	w.u8(0x10).u8(0x20).u8(0x30)
	w.animTail(1)

	doc := mustDecode(t, w.b)
	slot := doc.Animations["flash"].Slots["front"]
	if slot.RGBA[0].Color != "ff00aa80" {
		t.Errorf("rgba = %q", slot.RGBA[0].Color)
	}
	if slot.RGB[0].Color != "102030" {
		t.Errorf("rgb = %q", slot.RGB[0].Color)
	}
}

func TestTwoColorTimeline(t *testing.T) {
	w := animPrefix("dusk")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(slotTimelineRGBA2)
	w.varUint(2)
	w.f32(0)
	w.u8(0xFF).u8(0xFF).u8(0xFF).u8(0xFF) // light
	w.u8(0x00).u8(0x00).u8(0x00)          // dark
	w.f32(1)
	w.u8(0x80).u8(0x80).u8(0x80).u8(0xFF)
	w.u8(0x40).u8(0x40).u8(0x40)
	w.u8(curveStepped)
	w.animTail(1)

	doc := mustDecode(t, w.b)
	frames := doc.Animations["dusk"].Slots["front"].RGBA2
	if frames[0].Light != "ffffffff" || frames[0].Dark != "000000" {
		t.Errorf("frame 0 = %+v", frames[0])
	}
	if frames[0].Curve == nil || !frames[0].Curve.Stepped {
		t.Errorf("curve = %+v", frames[0].Curve)
	}
	if frames[1].Light != "808080ff" || frames[1].Dark != "404040" {
		t.Errorf("frame 1 = %+v", frames[1])
	}
}

func TestAlphaTimeline(t *testing.T) {
	w := animPrefix("fade")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(slotTimelineAlpha)
	w.varUint(2)
	w.f32(0)
	w.u8(255)
	w.f32(1)
	w.u8(0)
	w.u8(curveLinear)
	w.animTail(1)

	doc := mustDecode(t, w.b)
	frames := doc.Animations["fade"].Slots["front"].Alpha
	if frames[0].Value != nil {
		t.Errorf("frame 0 value = %v, want omitted at opaque", *frames[0].Value)
	}
	if frames[1].Value == nil || *frames[1].Value != 0 {
		t.Errorf("frame 1 value = %v", frames[1].Value)
	}
}

func TestAttachmentVisibilityTimeline(t *testing.T) {
	w := animPrefix("blink", "eye-open")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(slotTimelineAttachment)
	w.varUint(2)
	w.f32(0)
	w.varUint(1) // "eye-open"
	w.f32(0.1)
	w.varUint(0) // clear
	w.animTail(1)

	doc := mustDecode(t, w.b)
	frames := doc.Animations["blink"].Slots["front"].Attachment
	if frames[0].Name == nil || *frames[0].Name != "eye-open" {
		t.Errorf("frame 0 name = %v", frames[0].Name)
	}
	if frames[1].Name != nil {
		t.Errorf("frame 1 name = %v, want nil", *frames[1].Name)
	}
	// The clearing frame must keep an explicit null in the output.
	raw, err := json.Marshal(frames[1])
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"time":0.1,"name":null}` {
		t.Errorf("json = %s", raw)
	}
}

func TestDeformTimeline(t *testing.T) {
	w := animPrefix("wobble", "quad")
	w.varUint(0) // slots
	w.varUint(0) // bones
	w.varUint(0) // ik
	w.varUint(0) // transform
	w.varUint(0) // path
	w.varUint(1) // attachment skin groups
	w.varUint(0) // skin index (default)
	w.varUint(1) // slots
	w.varUint(0) // slot index
	w.varUint(1) // attachments
	w.varUint(1) // "quad"
	w.u8(attachmentTimelineDeform)
	w.varUint(2)
	w.f32(0)
	w.varUint(0) // reset frame
	w.f32(1)
	w.varUint(2) // two floats
	w.varUint(4) // starting at offset 4
	w.f32(0.5).f32(-0.5)
	w.u8(curveLinear)
	w.varUint(0) // draw order
	w.varUint(0) // events

	doc := mustDecode(t, w.b)
	timeline := doc.Animations["wobble"].Attachments["default"]["front"]["quad"]
	if timeline == nil {
		t.Fatalf("attachments = %+v", doc.Animations["wobble"].Attachments)
	}
	frames := timeline.Deform
	if len(frames) != 2 {
		t.Fatalf("frames = %+v", frames)
	}
	if frames[0].Offset != 0 || frames[0].Vertices != nil {
		t.Errorf("reset frame = %+v", frames[0])
	}
	if frames[1].Offset != 4 || !reflect.DeepEqual(frames[1].Vertices, []float32{0.5, -0.5}) {
		t.Errorf("sparse frame = %+v", frames[1])
	}
}

func TestSequenceTimeline(t *testing.T) {
	w := animPrefix("reel", "film")
	w.varUint(0)
	w.varUint(0)
	w.varUint(0)
	w.varUint(0)
	w.varUint(0)
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.varUint(1) // "film"
	w.u8(attachmentTimelineSequence)
	w.varUint(1)
	w.f32(0)
	w.u32(3<<4 | 2) // index 3, mode loop
	w.f32(0.25)
	w.varUint(0)
	w.varUint(0)

	doc := mustDecode(t, w.b)
	frames := doc.Animations["reel"].Attachments["default"]["front"]["film"].Sequence
	f := frames[0]
	if f.Mode != "loop" || f.Index != 3 || f.Delay != 0.25 {
		t.Errorf("frame = %+v", f)
	}
}

func TestEmptyAnimationDropped(t *testing.T) {
	w := animPrefix("idle")
	w.animTail(0)

	doc := mustDecode(t, w.b)
	if len(doc.Animations) != 0 {
		t.Errorf("animations = %v", doc.Animations)
	}
	if len(doc.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", doc.Diagnostics)
	}
}

func TestUnknownTimelineType(t *testing.T) {
	w := animPrefix("broken")
	w.varUint(1)
	w.varUint(0)
	w.varUint(1)
	w.u8(99) // no such slot timeline
	w.varUint(1)

	doc := mustDecode(t, w.b)
	if !hasDiagnostic(doc, DiagUnknownTimelineType) {
		t.Fatalf("diagnostics = %v", doc.Diagnostics)
	}
	// Everything before the animations section survives.
	if len(doc.Bones) != 1 || len(doc.Slots) != 1 {
		t.Errorf("earlier sections lost")
	}
}

// Skipped timeline groups still have to be consumed byte-exactly for the
// retained groups after them to parse.
func TestSkippedTimelinesKeepSync(t *testing.T) {
	w := animPrefix("mixed", "quad")
	w.varUint(0) // slots
	w.varUint(0) // bones
	w.varUint(1) // ik timelines
	w.varUint(0) // constraint index
	w.varUint(2) // frames
	w.f32(0).f32(1).f32(0) // frame 0 time, mix, softness
	w.u8(1)                // bend
	w.boolean(false)       // compress
	w.boolean(false)       // stretch
	w.f32(1).f32(0.5).f32(0)
	w.u8(curveLinear)
	w.u8(1)
	w.boolean(true)
	w.boolean(false)
	w.varUint(1) // transform timelines
	w.varUint(0) // constraint index
	w.varUint(2) // frames
	for i := 0; i < 7; i++ { // frame 0 time + six mixes
		w.f32(0)
	}
	for i := 0; i < 7; i++ {
		w.f32(1)
	}
	w.u8(curveStepped)
	w.varUint(1) // path groups
	w.varUint(0) // constraint index
	w.varUint(1) // timelines
	w.u8(pathTimelineMix)
	w.varUint(2)
	w.f32(0).f32(1).f32(1).f32(1)
	w.f32(1).f32(0).f32(0).f32(0)
	w.u8(curveLinear)
	// A retained group after the skips proves they consumed their bytes exactly.
	w.varUint(1) // attachment skin groups
	w.varUint(0) // skin index (default)
	w.varUint(1) // slots
	w.varUint(0) // slot index
	w.varUint(1) // attachments
	w.varUint(1) // "quad"
	w.u8(attachmentTimelineDeform)
	w.varUint(1)
	w.f32(2)
	w.varUint(0) // reset frame
	w.varUint(1) // draw order frames
	w.f32(0)
	w.varUint(1) // offsets
	w.varUint(0).varUint(1)
	w.varUint(0) // event frames

	doc := mustDecode(t, w.b)
	if len(doc.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", doc.Diagnostics)
	}
	frames := doc.Animations["mixed"].Attachments["default"]["front"]["quad"].Deform
	if len(frames) != 1 || frames[0].Time == nil || *frames[0].Time != 2 {
		t.Errorf("deform frames = %+v", frames)
	}
}
