package skel

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/spine_skel_browser/config"
	"github.com/mogaika/spine_skel_browser/utils"
)

var transformModeNames = []string{
	"", // normal, omitted
	"onlyTranslation",
	"noRotationOrReflection",
	"noScale",
	"noScaleOrReflection",
}

var blendModeNames = []string{
	"", // normal, omitted
	"additive",
	"multiply",
	"screen",
}

const (
	noColor      = 0xFFFFFFFF
	boneDefColor = 0x9B9B9BFF
)

type linkedMeshRef struct {
	skin   *string // nil means default skin
	parent string
	target *LinkedMeshAttachment
}

type decoder struct {
	s     *utils.Stream
	scale float32

	nonessential bool
	strings      []string

	doc        *Document
	slotNames  []string
	eventAudio []bool
	linked     []linkedMeshRef
}

// NewFromData decodes one skel stream. The returned document is best-effort:
// faults are recorded in Document.Diagnostics, soft reference faults
// substitute an empty value, and faults that desynchronize the cursor keep
// everything materialized before them. The error is non-nil only when even
// the header is unreadable.
func NewFromData(data []byte) (*Document, error) {
	d := &decoder{
		s:     utils.NewStream(data),
		scale: config.GetScale(),
		doc:   &Document{},
	}

	if err := d.readHeader(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read skel header")
	}

	sections := []struct {
		name string
		read func() error
	}{
		{"strings", d.readStrings},
		{"bones", d.readBones},
		{"slots", d.readSlots},
		{"ik constraints", d.readIKConstraints},
		{"transform constraints", d.readTransformConstraints},
		{"path constraints", d.skipPathConstraints},
		{"skins", d.readSkins},
		{"events", d.readEvents},
		// Timelines reference bones, slots and skins by index only; the
		// tables are complete and frozen by this point.
		{"animations", func() error { return d.readAnimations(d.freezeTables()) }},
	}
	for _, section := range sections {
		if err := section.read(); err != nil {
			d.diag(classify(err), section.name, "%v", err)
			break
		}
		if section.name == "skins" {
			d.resolveLinkedMeshes()
		}
	}
	// Truncation inside skins must not lose the already queued linked meshes.
	if len(d.linked) != 0 {
		d.resolveLinkedMeshes()
	}
	return d.doc, nil
}

func (d *decoder) diag(kind DiagnosticKind, section, format string, args ...interface{}) {
	d.doc.Diagnostics = append(d.doc.Diagnostics, Diagnostic{
		Kind:    kind,
		Section: section,
		Message: fmt.Sprintf(format, args...),
	})
}

// stringRef resolves a 1-based string table reference; 0 is absent. An
// out-of-range index is a soft fault: it is recorded and read as absent.
func (d *decoder) stringRef(section string) (*string, error) {
	idx, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	if int(idx) > len(d.strings) {
		d.diag(DiagInvalidStringReference, section, "String reference %v outside table of %v", idx, len(d.strings))
		return nil, nil
	}
	return &d.strings[idx-1], nil
}

func (d *decoder) boneName(index int, section string) string {
	if index < 0 || index >= len(d.doc.Bones) {
		d.diag(DiagInvalidBoneReference, section, "Bone index %v outside table of %v", index, len(d.doc.Bones))
		return ""
	}
	return d.doc.Bones[index].Name
}

func (d *decoder) slotName(index int, section string) string {
	if index < 0 || index >= len(d.slotNames) {
		d.diag(DiagInvalidSlotReference, section, "Slot index %v outside table of %v", index, len(d.slotNames))
		return ""
	}
	return d.slotNames[index]
}

// tables is the immutable owner-index name space the timeline decoder
// resolves against.
type tables struct {
	bones []string
	slots []string
	skins []string
}

func (d *decoder) freezeTables() *tables {
	t := &tables{
		bones: make([]string, len(d.doc.Bones)),
		slots: d.slotNames,
		skins: make([]string, len(d.doc.Skins)),
	}
	for i, b := range d.doc.Bones {
		t.bones[i] = b.Name
	}
	for i, s := range d.doc.Skins {
		t.skins[i] = s.Name
	}
	return t
}

func (d *decoder) tableName(table []string, index int, kind DiagnosticKind, section string) string {
	if index < 0 || index >= len(table) {
		d.diag(kind, section, "Index %v outside table of %v", index, len(table))
		return ""
	}
	return table[index]
}

func (d *decoder) readHeader() error {
	hash, err := d.s.ReadU64()
	if err != nil {
		return err
	}
	version, err := d.s.ReadString()
	if err != nil {
		return err
	}
	// Setup pose bounding box; consumed but not part of the document.
	if _, err := d.s.ReadVec2(); err != nil {
		return err
	}
	if _, err := d.s.ReadVec2(); err != nil {
		return err
	}
	d.doc.Skeleton.Hash = fmt.Sprintf("%x", hash)
	d.doc.Skeleton.Version = utils.Str(version)

	if d.nonessential, err = d.s.ReadBool(); err != nil {
		return err
	}
	if d.nonessential {
		if d.doc.Skeleton.Fps, err = d.s.ReadF32(); err != nil {
			return err
		}
		images, err := d.s.ReadString()
		if err != nil {
			return err
		}
		audio, err := d.s.ReadString()
		if err != nil {
			return err
		}
		d.doc.Skeleton.Images = utils.Str(images)
		d.doc.Skeleton.Audio = utils.Str(audio)
	}
	return nil
}

func (d *decoder) readStrings() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	d.strings = make([]string, count)
	for i := range d.strings {
		s, err := d.s.ReadString()
		if err != nil {
			return err
		}
		d.strings[i] = utils.Str(s)
	}
	return nil
}

func (d *decoder) readBones() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		bone, err := d.readBone(i)
		if err != nil {
			return err
		}
		d.doc.Bones = append(d.doc.Bones, bone)
	}
	return nil
}

func (d *decoder) readBone(index int) (*Bone, error) {
	name, err := d.s.ReadString()
	if err != nil {
		return nil, err
	}
	bone := &Bone{Name: utils.Str(name)}
	if index > 0 {
		// Parents always precede children in the stream, so the reference is
		// an index into the bones decoded so far.
		parent, err := d.s.ReadVarUint()
		if err != nil {
			return nil, err
		}
		bone.Parent = d.boneName(int(parent), "bones")
	}

	var rotation, x, y, scaleX, scaleY, shearX, shearY, length float32
	for _, dst := range []*float32{&rotation, &x, &y, &scaleX, &scaleY, &shearX, &shearY, &length} {
		if *dst, err = d.s.ReadF32(); err != nil {
			return nil, err
		}
	}
	bone.Rotation = utils.PruneZero(rotation, utils.TolTransform)
	bone.X = utils.PruneZero(x*d.scale, utils.TolTransform)
	bone.Y = utils.PruneZero(y*d.scale, utils.TolTransform)
	bone.ScaleX = utils.OptFloat(scaleX, 1, utils.TolTransform)
	bone.ScaleY = utils.OptFloat(scaleY, 1, utils.TolTransform)
	bone.ShearX = utils.PruneZero(shearX, utils.TolTransform)
	bone.ShearY = utils.PruneZero(shearY, utils.TolTransform)
	bone.Length = utils.PruneZero(length*d.scale, utils.TolTransform)

	mode, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if int(mode) < len(transformModeNames) {
		bone.Transform = transformModeNames[mode]
	}
	if bone.Skin, err = d.s.ReadBool(); err != nil {
		return nil, err
	}
	if d.nonessential {
		color, err := d.s.ReadU32()
		if err != nil {
			return nil, err
		}
		if color != boneDefColor {
			bone.Color = utils.RGBA8(color).HexUpper()
		}
	}
	return bone, nil
}

func (d *decoder) readSlots() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		slot, err := d.readSlot()
		if err != nil {
			return err
		}
		d.doc.Slots = append(d.doc.Slots, slot)
		d.slotNames = append(d.slotNames, slot.Name)
	}
	return nil
}

func (d *decoder) readSlot() (*Slot, error) {
	name, err := d.s.ReadString()
	if err != nil {
		return nil, err
	}
	boneIndex, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	slot := &Slot{
		Name: utils.Str(name),
		Bone: d.boneName(int(boneIndex), "slots"),
	}

	color, err := d.s.ReadU32()
	if err != nil {
		return nil, err
	}
	if color != noColor {
		slot.Color = utils.RGBA8(color).HexUpper()
	}
	// Dark tint is rgb888; the raw value -1 is the absence sentinel.
	dark, err := d.s.ReadU32()
	if err != nil {
		return nil, err
	}
	if dark != 0xFFFFFFFF {
		slot.Dark = fmt.Sprintf("%06X", dark&0xFFFFFF)
	}

	attachment, err := d.stringRef("slots")
	if err != nil {
		return nil, err
	}
	slot.Attachment = utils.Str(attachment)

	blend, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if int(blend) < len(blendModeNames) {
		slot.Blend = blendModeNames[blend]
	}
	return slot, nil
}

// readConstraintCommon reads the name/order/skin/bones/target prefix shared
// by all three constraint kinds.
func (d *decoder) readConstraintCommon(section string) (name string, order int, skin bool, bones []string, target int, err error) {
	nameRef, err := d.s.ReadString()
	if err != nil {
		return
	}
	name = utils.Str(nameRef)
	orderU, err := d.s.ReadVarUint()
	if err != nil {
		return
	}
	order = int(orderU)
	if skin, err = d.s.ReadBool(); err != nil {
		return
	}
	boneCount, err := d.s.ReadVarUint()
	if err != nil {
		return
	}
	for i := 0; i < int(boneCount); i++ {
		var b uint32
		if b, err = d.s.ReadVarUint(); err != nil {
			return
		}
		bones = append(bones, d.boneName(int(b), section))
	}
	targetU, err := d.s.ReadVarUint()
	if err != nil {
		return
	}
	target = int(targetU)
	return
}

func (d *decoder) readIKConstraints() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		name, order, skin, bones, target, err := d.readConstraintCommon("ik constraints")
		if err != nil {
			return err
		}
		ik := &IKConstraint{
			Name:   name,
			Order:  order,
			Skin:   skin,
			Bones:  bones,
			Target: d.boneName(target, "ik constraints"),
		}

		mix, err := d.s.ReadF32()
		if err != nil {
			return err
		}
		ik.Mix = utils.OptFloat(mix, 1, utils.TolTransform)
		softness, err := d.s.ReadF32()
		if err != nil {
			return err
		}
		ik.Softness = utils.PruneZero(softness*d.scale, utils.TolTransform)

		bend, err := d.s.ReadI8()
		if err != nil {
			return err
		}
		if bend < 0 {
			f := false
			ik.BendPositive = &f
		}
		if ik.Compress, err = d.s.ReadBool(); err != nil {
			return err
		}
		if ik.Stretch, err = d.s.ReadBool(); err != nil {
			return err
		}
		if ik.Uniform, err = d.s.ReadBool(); err != nil {
			return err
		}
		d.doc.IK = append(d.doc.IK, ik)
	}
	return nil
}

func (d *decoder) readTransformConstraints() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		name, order, skin, bones, target, err := d.readConstraintCommon("transform constraints")
		if err != nil {
			return err
		}
		tc := &TransformConstraint{
			Name:   name,
			Order:  order,
			Skin:   skin,
			Bones:  bones,
			Target: d.boneName(target, "transform constraints"),
		}

		if tc.Local, err = d.s.ReadBool(); err != nil {
			return err
		}
		if tc.Relative, err = d.s.ReadBool(); err != nil {
			return err
		}

		var offsets [6]float32
		for j := range offsets {
			if offsets[j], err = d.s.ReadF32(); err != nil {
				return err
			}
		}
		tc.Rotation = utils.PruneZero(offsets[0], utils.TolTransform)
		tc.X = utils.PruneZero(offsets[1]*d.scale, utils.TolTransform)
		tc.Y = utils.PruneZero(offsets[2]*d.scale, utils.TolTransform)
		tc.ScaleX = utils.PruneZero(offsets[3], utils.TolTransform)
		tc.ScaleY = utils.PruneZero(offsets[4], utils.TolTransform)
		tc.ShearY = utils.PruneZero(offsets[5], utils.TolTransform)

		var mixes [6]float32
		for j := range mixes {
			if mixes[j], err = d.s.ReadF32(); err != nil {
				return err
			}
		}
		tc.MixRotate = utils.OptFloat(mixes[0], 1, utils.TolTransform)
		tc.MixX = utils.OptFloat(mixes[1], 1, utils.TolTransform)
		tc.MixY = utils.OptFloat(mixes[2], 1, utils.TolTransform)
		tc.MixScaleX = utils.OptFloat(mixes[3], 1, utils.TolTransform)
		tc.MixScaleY = utils.OptFloat(mixes[4], 1, utils.TolTransform)
		tc.MixShearY = utils.OptFloat(mixes[5], 1, utils.TolTransform)

		d.doc.Transform = append(d.doc.Transform, tc)
	}
	return nil
}

// skipPathConstraints consumes the path constraint records byte-exactly.
// Their contents are not retained in the document.
func (d *decoder) skipPathConstraints() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, _, _, _, _, err := d.readConstraintCommon("path constraints"); err != nil {
			return err
		}
		// position, spacing and rotate modes
		for j := 0; j < 3; j++ {
			if _, err := d.s.ReadVarUint(); err != nil {
				return err
			}
		}
		// offsetRotation, position, spacing, mixRotate, mixX, mixY
		for j := 0; j < 6; j++ {
			if _, err := d.s.ReadF32(); err != nil {
				return err
			}
		}
	}
	return nil
}

// readEvents drops the event definitions but keeps each event's audio flag:
// event timeline frames carry two extra floats when their event has audio.
func (d *decoder) readEvents() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := d.stringRef("events"); err != nil {
			return err
		}
		if _, err := d.s.ReadVarInt(); err != nil { // int value
			return err
		}
		if _, err := d.s.ReadF32(); err != nil { // float value
			return err
		}
		if _, err := d.s.ReadString(); err != nil { // string value
			return err
		}
		audio, err := d.s.ReadString()
		if err != nil {
			return err
		}
		d.eventAudio = append(d.eventAudio, audio != nil)
		if audio != nil {
			if _, err := d.s.ReadF32(); err != nil { // volume
				return err
			}
			if _, err := d.s.ReadF32(); err != nil { // balance
				return err
			}
		}
	}
	return nil
}
