package skel

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/spine_skel_browser/utils"
)

const (
	slotTimelineAttachment = 0
	slotTimelineRGBA       = 1
	slotTimelineRGB        = 2
	slotTimelineRGBA2      = 3
	slotTimelineRGB2       = 4
	slotTimelineAlpha      = 5
)

const (
	boneTimelineRotate     = 0
	boneTimelineTranslate  = 1
	boneTimelineTranslateX = 2
	boneTimelineTranslateY = 3
	boneTimelineScale      = 4
	boneTimelineScaleX     = 5
	boneTimelineScaleY     = 6
	boneTimelineShear      = 7
	boneTimelineShearX     = 8
	boneTimelineShearY     = 9
)

const (
	attachmentTimelineDeform   = 0
	attachmentTimelineSequence = 1
)

const (
	pathTimelinePosition = 0
	pathTimelineSpacing  = 1
	pathTimelineMix      = 2
)

const (
	curveLinear  = 0
	curveStepped = 1
	curveBezier  = 2
)

var sequenceModeNames = []string{
	"", // hold, omitted
	"once",
	"loop",
	"pingpong",
	"onceReverse",
	"loopReverse",
	"pingpongReverse",
}

// Animation groups timelines by owner. An animation where every retained
// group is empty is dropped from the document.
type Animation struct {
	Slots       map[string]*SlotTimelines                            `json:"slots,omitempty"`
	Bones       map[string]*BoneTimelines                            `json:"bones,omitempty"`
	Attachments map[string]map[string]map[string]*AttachmentTimeline `json:"attachments,omitempty"`
}

func (a *Animation) empty() bool {
	return len(a.Slots) == 0 && len(a.Bones) == 0 && len(a.Attachments) == 0
}

type SlotTimelines struct {
	Attachment []*AttachmentFrame `json:"attachment,omitempty"`
	RGBA       []*ColorFrame      `json:"rgba,omitempty"`
	RGB        []*ColorFrame      `json:"rgb,omitempty"`
	RGBA2      []*TwoColorFrame   `json:"rgba2,omitempty"`
	RGB2       []*TwoColorFrame   `json:"rgb2,omitempty"`
	Alpha      []*ValueFrame      `json:"alpha,omitempty"`
}

type BoneTimelines struct {
	Rotate     []*ValueFrame `json:"rotate,omitempty"`
	Translate  []*PairFrame  `json:"translate,omitempty"`
	TranslateX []*ValueFrame `json:"translatex,omitempty"`
	TranslateY []*ValueFrame `json:"translatey,omitempty"`
	Scale      []*PairFrame  `json:"scale,omitempty"`
	ScaleX     []*ValueFrame `json:"scalex,omitempty"`
	ScaleY     []*ValueFrame `json:"scaley,omitempty"`
	Shear      []*PairFrame  `json:"shear,omitempty"`
	ShearX     []*ValueFrame `json:"shearx,omitempty"`
	ShearY     []*ValueFrame `json:"sheary,omitempty"`
}

type AttachmentTimeline struct {
	Deform   []*DeformFrame   `json:"deform,omitempty"`
	Sequence []*SequenceFrame `json:"sequence,omitempty"`
}

// Curve describes the interpolation leaving a keyframe: stepped, or a bezier
// control point list of 4 floats per independent channel. Linear transitions
// carry no curve at all.
type Curve struct {
	Stepped bool
	Bezier  []float32
}

func (c *Curve) MarshalJSON() ([]byte, error) {
	if c.Stepped {
		return []byte(`"stepped"`), nil
	}
	return json.Marshal(c.Bezier)
}

// Frame carries what every curve timeline keyframe shares. Time is nil only
// on a first frame whose decoded time is zero.
type Frame struct {
	Time  *float32 `json:"time,omitempty"`
	Curve *Curve   `json:"curve,omitempty"`
}

type ValueFrame struct {
	Frame
	Value *float32 `json:"value,omitempty"`
}

type PairFrame struct {
	Frame
	X *float32 `json:"x,omitempty"`
	Y *float32 `json:"y,omitempty"`
}

type AttachmentFrame struct {
	Time *float32 `json:"time,omitempty"`
	Name *string  `json:"name"`
}

type ColorFrame struct {
	Frame
	Color string `json:"color"`
}

type TwoColorFrame struct {
	Frame
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

// DeformFrame with no vertices resets the mesh to its undeformed shape; an
// explicit sparse range carries exactly its delta floats starting at Offset.
type DeformFrame struct {
	Frame
	Offset   int       `json:"offset,omitempty"`
	Vertices []float32 `json:"vertices,omitempty"`
}

type SequenceFrame struct {
	Time  *float32 `json:"time,omitempty"`
	Mode  string   `json:"mode,omitempty"`
	Index int      `json:"index,omitempty"`
	Delay float32  `json:"delay,omitempty"`
}

// frameTime stores a keyframe time, dropping it on a first frame at zero.
func frameTime(index int, t float32) *float32 {
	if index == 0 && utils.NearDefault(t, 0, utils.TolGeometry) {
		return nil
	}
	return &t
}

// readCurve consumes the transition descriptor read after the following
// frame's values. channels is the number of independent curves the timeline
// carries; bezier data is 4 floats per channel.
func (d *decoder) readCurve(channels int) (*Curve, error) {
	kind, err := d.s.ReadU8()
	if err != nil {
		return nil, err
	}
	switch kind {
	case curveLinear:
		return nil, nil
	case curveStepped:
		return &Curve{Stepped: true}, nil
	case curveBezier:
		bezier := make([]float32, 4*channels)
		for i := range bezier {
			if bezier[i], err = d.s.ReadF32(); err != nil {
				return nil, err
			}
		}
		return &Curve{Bezier: bezier}, nil
	}
	return nil, errors.Wrapf(errUnknownTimelineType, "Curve type %v", kind)
}

func (d *decoder) readAnimations(t *tables) error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		name, err := d.s.ReadString()
		if err != nil {
			return err
		}
		anim, err := d.readAnimation(t, fmt.Sprintf("animation %s", utils.Str(name)))
		if err != nil {
			return err
		}
		if anim.empty() {
			continue
		}
		if d.doc.Animations == nil {
			d.doc.Animations = make(map[string]*Animation)
		}
		d.doc.Animations[utils.Str(name)] = anim
	}
	return nil
}

func (d *decoder) readAnimation(t *tables, section string) (*Animation, error) {
	anim := &Animation{}
	if err := d.readSlotTimelines(anim, t, section); err != nil {
		return nil, err
	}
	if err := d.readBoneTimelines(anim, t, section); err != nil {
		return nil, err
	}
	if err := d.skipIKTimelines(); err != nil {
		return nil, err
	}
	if err := d.skipTransformTimelines(); err != nil {
		return nil, err
	}
	if err := d.skipPathTimelines(); err != nil {
		return nil, err
	}
	if err := d.readAttachmentTimelines(anim, t, section); err != nil {
		return nil, err
	}
	if err := d.skipDrawOrderTimeline(); err != nil {
		return nil, err
	}
	if err := d.skipEventTimeline(); err != nil {
		return nil, err
	}
	return anim, nil
}

func (d *decoder) readSlotTimelines(anim *Animation, t *tables, section string) error {
	groupCount, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(groupCount); i++ {
		slotIndex, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		slotName := d.tableName(t.slots, int(slotIndex), DiagInvalidSlotReference, section)

		timelineCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		timelines := &SlotTimelines{}
		for j := 0; j < int(timelineCount); j++ {
			if err := d.readSlotTimeline(timelines, section); err != nil {
				return err
			}
		}
		if anim.Slots == nil {
			anim.Slots = make(map[string]*SlotTimelines)
		}
		anim.Slots[slotName] = timelines
	}
	return nil
}

func (d *decoder) readSlotTimeline(timelines *SlotTimelines, section string) error {
	kind, err := d.s.ReadU8()
	if err != nil {
		return err
	}
	frameCount, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}

	switch kind {
	case slotTimelineAttachment:
		for frame := 0; frame < int(frameCount); frame++ {
			time, err := d.s.ReadF32()
			if err != nil {
				return err
			}
			name, err := d.stringRef(section)
			if err != nil {
				return err
			}
			timelines.Attachment = append(timelines.Attachment, &AttachmentFrame{
				Time: frameTime(frame, time),
				Name: name,
			})
		}
		return nil

	case slotTimelineRGBA:
		frames, err := d.readColorFrames(int(frameCount), 4)
		timelines.RGBA = frames
		return err

	case slotTimelineRGB:
		frames, err := d.readColorFrames(int(frameCount), 3)
		timelines.RGB = frames
		return err

	case slotTimelineRGBA2:
		frames, err := d.readTwoColorFrames(int(frameCount), true)
		timelines.RGBA2 = frames
		return err

	case slotTimelineRGB2:
		frames, err := d.readTwoColorFrames(int(frameCount), false)
		timelines.RGB2 = frames
		return err

	case slotTimelineAlpha:
		frames := make([]*ValueFrame, 0, frameCount)
		time, alpha, err := d.readAlphaValues()
		if err != nil {
			return err
		}
		for frame := 0; ; frame++ {
			// An omitted alpha means fully opaque, same as the slot color default.
			f := &ValueFrame{
				Frame: Frame{Time: frameTime(frame, time)},
				Value: utils.OptFloat(alpha, 1, utils.TolGeometry),
			}
			frames = append(frames, f)
			if frame == int(frameCount)-1 {
				break
			}
			time2, alpha2, err := d.readAlphaValues()
			if err != nil {
				return err
			}
			if f.Curve, err = d.readCurve(1); err != nil {
				return err
			}
			time, alpha = time2, alpha2
		}
		timelines.Alpha = frames
		return nil
	}
	return errors.Wrapf(errUnknownTimelineType, "Slot timeline type %v", kind)
}

func (d *decoder) readAlphaValues() (time float32, alpha float32, err error) {
	if time, err = d.s.ReadF32(); err != nil {
		return
	}
	a, err := d.s.ReadU8()
	if err != nil {
		return
	}
	alpha = float32(a) / 255
	return
}

// readColorFrames handles the rgba (4 byte channels) and rgb (3 byte
// channels) slot timelines. Slot timeline colors render as lowercase hex.
func (d *decoder) readColorFrames(frameCount, channels int) ([]*ColorFrame, error) {
	read := func() (float32, string, error) {
		time, err := d.s.ReadF32()
		if err != nil {
			return 0, "", err
		}
		raw, err := d.s.ReadBytes(channels)
		if err != nil {
			return 0, "", err
		}
		var hex string
		if channels == 4 {
			hex = utils.PackRGBA(raw[0], raw[1], raw[2], raw[3]).HexLower()
		} else {
			hex = utils.PackRGB(raw[0], raw[1], raw[2]).RGBHexLower()
		}
		return time, hex, nil
	}

	frames := make([]*ColorFrame, 0, frameCount)
	time, hex, err := read()
	if err != nil {
		return nil, err
	}
	for frame := 0; ; frame++ {
		f := &ColorFrame{Frame: Frame{Time: frameTime(frame, time)}, Color: hex}
		frames = append(frames, f)
		if frame == frameCount-1 {
			return frames, nil
		}
		time2, hex2, err := read()
		if err != nil {
			return nil, err
		}
		if f.Curve, err = d.readCurve(channels); err != nil {
			return nil, err
		}
		time, hex = time2, hex2
	}
}

// readTwoColorFrames handles rgba2 (light rgba + dark rgb, 7 channels) and
// rgb2 (light rgb + dark rgb, 6 channels).
func (d *decoder) readTwoColorFrames(frameCount int, lightAlpha bool) ([]*TwoColorFrame, error) {
	channels := 6
	if lightAlpha {
		channels = 7
	}
	read := func() (float32, string, string, error) {
		time, err := d.s.ReadF32()
		if err != nil {
			return 0, "", "", err
		}
		var light string
		if lightAlpha {
			raw, err := d.s.ReadBytes(4)
			if err != nil {
				return 0, "", "", err
			}
			light = utils.PackRGBA(raw[0], raw[1], raw[2], raw[3]).HexLower()
		} else {
			raw, err := d.s.ReadBytes(3)
			if err != nil {
				return 0, "", "", err
			}
			light = utils.PackRGB(raw[0], raw[1], raw[2]).RGBHexLower()
		}
		raw, err := d.s.ReadBytes(3)
		if err != nil {
			return 0, "", "", err
		}
		dark := utils.PackRGB(raw[0], raw[1], raw[2]).RGBHexLower()
		return time, light, dark, nil
	}

	frames := make([]*TwoColorFrame, 0, frameCount)
	time, light, dark, err := read()
	if err != nil {
		return nil, err
	}
	for frame := 0; ; frame++ {
		f := &TwoColorFrame{Frame: Frame{Time: frameTime(frame, time)}, Light: light, Dark: dark}
		frames = append(frames, f)
		if frame == frameCount-1 {
			return frames, nil
		}
		time2, light2, dark2, err := read()
		if err != nil {
			return nil, err
		}
		if f.Curve, err = d.readCurve(channels); err != nil {
			return nil, err
		}
		time, light, dark = time2, light2, dark2
	}
}

func (d *decoder) readBoneTimelines(anim *Animation, t *tables, section string) error {
	groupCount, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(groupCount); i++ {
		boneIndex, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		boneName := d.tableName(t.bones, int(boneIndex), DiagInvalidBoneReference, section)

		timelineCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		timelines := &BoneTimelines{}
		for j := 0; j < int(timelineCount); j++ {
			if err := d.readBoneTimeline(timelines); err != nil {
				return err
			}
		}
		if anim.Bones == nil {
			anim.Bones = make(map[string]*BoneTimelines)
		}
		anim.Bones[boneName] = timelines
	}
	return nil
}

func (d *decoder) readBoneTimeline(timelines *BoneTimelines) error {
	kind, err := d.s.ReadU8()
	if err != nil {
		return err
	}
	frameCount, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}

	switch kind {
	case boneTimelineRotate:
		frames, err := d.readValueFrames(int(frameCount), 0, 1)
		timelines.Rotate = frames
		return err
	case boneTimelineTranslate:
		frames, err := d.readPairFrames(int(frameCount), 0, d.scale)
		timelines.Translate = frames
		return err
	case boneTimelineTranslateX:
		frames, err := d.readValueFrames(int(frameCount), 0, d.scale)
		timelines.TranslateX = frames
		return err
	case boneTimelineTranslateY:
		frames, err := d.readValueFrames(int(frameCount), 0, d.scale)
		timelines.TranslateY = frames
		return err
	case boneTimelineScale:
		frames, err := d.readPairFrames(int(frameCount), 1, 1)
		timelines.Scale = frames
		return err
	case boneTimelineScaleX:
		frames, err := d.readValueFrames(int(frameCount), 1, 1)
		timelines.ScaleX = frames
		return err
	case boneTimelineScaleY:
		frames, err := d.readValueFrames(int(frameCount), 1, 1)
		timelines.ScaleY = frames
		return err
	case boneTimelineShear:
		frames, err := d.readPairFrames(int(frameCount), 0, 1)
		timelines.Shear = frames
		return err
	case boneTimelineShearX:
		frames, err := d.readValueFrames(int(frameCount), 0, 1)
		timelines.ShearX = frames
		return err
	case boneTimelineShearY:
		frames, err := d.readValueFrames(int(frameCount), 0, 1)
		timelines.ShearY = frames
		return err
	}
	return errors.Wrapf(errUnknownTimelineType, "Bone timeline type %v", kind)
}

// readValueFrames decodes a 1-channel curve timeline. def is the value's
// omission default, scale multiplies the raw value.
func (d *decoder) readValueFrames(frameCount int, def, scale float32) ([]*ValueFrame, error) {
	read := func() (t, v float32, err error) {
		if t, err = d.s.ReadF32(); err != nil {
			return
		}
		if v, err = d.s.ReadF32(); err != nil {
			return
		}
		v *= scale
		return
	}

	frames := make([]*ValueFrame, 0, frameCount)
	time, value, err := read()
	if err != nil {
		return nil, err
	}
	for frame := 0; ; frame++ {
		f := &ValueFrame{
			Frame: Frame{Time: frameTime(frame, time)},
			Value: utils.OptFloat(value, def, utils.TolTransform),
		}
		frames = append(frames, f)
		if frame == frameCount-1 {
			return frames, nil
		}
		time2, value2, err := read()
		if err != nil {
			return nil, err
		}
		if f.Curve, err = d.readCurve(1); err != nil {
			return nil, err
		}
		time, value = time2, value2
	}
}

// readPairFrames decodes a 2-channel curve timeline (translate/scale/shear).
func (d *decoder) readPairFrames(frameCount int, def, scale float32) ([]*PairFrame, error) {
	read := func() (t, x, y float32, err error) {
		if t, err = d.s.ReadF32(); err != nil {
			return
		}
		if x, err = d.s.ReadF32(); err != nil {
			return
		}
		if y, err = d.s.ReadF32(); err != nil {
			return
		}
		x, y = x*scale, y*scale
		return
	}

	frames := make([]*PairFrame, 0, frameCount)
	time, x, y, err := read()
	if err != nil {
		return nil, err
	}
	for frame := 0; ; frame++ {
		f := &PairFrame{
			Frame: Frame{Time: frameTime(frame, time)},
			X:     utils.OptFloat(x, def, utils.TolTransform),
			Y:     utils.OptFloat(y, def, utils.TolTransform),
		}
		frames = append(frames, f)
		if frame == frameCount-1 {
			return frames, nil
		}
		time2, x2, y2, err := read()
		if err != nil {
			return nil, err
		}
		if f.Curve, err = d.readCurve(2); err != nil {
			return nil, err
		}
		time, x, y = time2, x2, y2
	}
}

func (d *decoder) skipIKTimelines() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := d.s.ReadVarUint(); err != nil { // constraint index
			return err
		}
		frameCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		// time, mix, softness
		readValues := func() error {
			for j := 0; j < 3; j++ {
				if _, err := d.s.ReadF32(); err != nil {
					return err
				}
			}
			return nil
		}
		if err := readValues(); err != nil {
			return err
		}
		for frame := 0; ; frame++ {
			if _, err := d.s.ReadI8(); err != nil { // bend direction
				return err
			}
			if _, err := d.s.ReadBool(); err != nil { // compress
				return err
			}
			if _, err := d.s.ReadBool(); err != nil { // stretch
				return err
			}
			if frame == int(frameCount)-1 {
				break
			}
			if err := readValues(); err != nil {
				return err
			}
			if _, err := d.readCurve(2); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *decoder) skipTransformTimelines() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := d.s.ReadVarUint(); err != nil { // constraint index
			return err
		}
		frameCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		// time + six mixes
		readValues := func() error {
			for j := 0; j < 7; j++ {
				if _, err := d.s.ReadF32(); err != nil {
					return err
				}
			}
			return nil
		}
		if err := readValues(); err != nil {
			return err
		}
		for frame := 1; frame < int(frameCount); frame++ {
			if err := readValues(); err != nil {
				return err
			}
			if _, err := d.readCurve(6); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *decoder) skipPathTimelines() error {
	groupCount, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(groupCount); i++ {
		if _, err := d.s.ReadVarUint(); err != nil { // constraint index
			return err
		}
		timelineCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		for j := 0; j < int(timelineCount); j++ {
			kind, err := d.s.ReadU8()
			if err != nil {
				return err
			}
			var channels int
			switch kind {
			case pathTimelinePosition, pathTimelineSpacing:
				channels = 1
			case pathTimelineMix:
				channels = 3
			default:
				return errors.Wrapf(errUnknownTimelineType, "Path timeline type %v", kind)
			}
			frameCount, err := d.s.ReadVarUint()
			if err != nil {
				return err
			}
			readValues := func() error {
				for v := 0; v < channels+1; v++ { // time + values
					if _, err := d.s.ReadF32(); err != nil {
						return err
					}
				}
				return nil
			}
			if err := readValues(); err != nil {
				return err
			}
			for frame := 1; frame < int(frameCount); frame++ {
				if err := readValues(); err != nil {
					return err
				}
				if _, err := d.readCurve(channels); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (d *decoder) readAttachmentTimelines(anim *Animation, t *tables, section string) error {
	skinCount, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(skinCount); i++ {
		skinIndex, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		skinName := d.tableName(t.skins, int(skinIndex), DiagInvalidSkinReference, section)

		slotCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		for j := 0; j < int(slotCount); j++ {
			slotIndex, err := d.s.ReadVarUint()
			if err != nil {
				return err
			}
			slotName := d.tableName(t.slots, int(slotIndex), DiagInvalidSlotReference, section)

			attachmentCount, err := d.s.ReadVarUint()
			if err != nil {
				return err
			}
			for k := 0; k < int(attachmentCount); k++ {
				attachmentName, err := d.stringRef(section)
				if err != nil {
					return err
				}
				timeline, err := d.readAttachmentTimeline(section)
				if err != nil {
					return err
				}
				if anim.Attachments == nil {
					anim.Attachments = make(map[string]map[string]map[string]*AttachmentTimeline)
				}
				if anim.Attachments[skinName] == nil {
					anim.Attachments[skinName] = make(map[string]map[string]*AttachmentTimeline)
				}
				if anim.Attachments[skinName][slotName] == nil {
					anim.Attachments[skinName][slotName] = make(map[string]*AttachmentTimeline)
				}
				anim.Attachments[skinName][slotName][utils.Str(attachmentName)] = timeline
			}
		}
	}
	return nil
}

func (d *decoder) readAttachmentTimeline(section string) (*AttachmentTimeline, error) {
	kind, err := d.s.ReadU8()
	if err != nil {
		return nil, err
	}
	frameCount, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}

	switch kind {
	case attachmentTimelineDeform:
		frames, err := d.readDeformFrames(int(frameCount))
		if err != nil {
			return nil, err
		}
		return &AttachmentTimeline{Deform: frames}, nil

	case attachmentTimelineSequence:
		frames := make([]*SequenceFrame, 0, frameCount)
		for frame := 0; frame < int(frameCount); frame++ {
			time, err := d.s.ReadF32()
			if err != nil {
				return nil, err
			}
			packed, err := d.s.ReadU32()
			if err != nil {
				return nil, err
			}
			delay, err := d.s.ReadF32()
			if err != nil {
				return nil, err
			}
			f := &SequenceFrame{
				Time:  frameTime(frame, time),
				Index: int(packed >> 4),
				Delay: delay,
			}
			mode := int(packed & 0xF)
			if mode < len(sequenceModeNames) {
				f.Mode = sequenceModeNames[mode]
			} else {
				d.diag(DiagUnknownTimelineType, section, "Sequence mode %v", mode)
			}
			frames = append(frames, f)
		}
		return &AttachmentTimeline{Sequence: frames}, nil
	}
	return nil, errors.Wrapf(errUnknownTimelineType, "Attachment timeline type %v", kind)
}

func (d *decoder) readDeformFrames(frameCount int) ([]*DeformFrame, error) {
	read := func() (t float32, offset int, deltas []float32, err error) {
		if t, err = d.s.ReadF32(); err != nil {
			return
		}
		end, err := d.s.ReadVarUint()
		if err != nil {
			return
		}
		if end == 0 {
			// Full reset to the undeformed mesh; no vertex data at all.
			return
		}
		start, err := d.s.ReadVarUint()
		if err != nil {
			return
		}
		offset = int(start)
		deltas = make([]float32, end)
		for i := range deltas {
			var v float32
			if v, err = d.s.ReadF32(); err != nil {
				return
			}
			deltas[i] = v * d.scale
		}
		return
	}

	frames := make([]*DeformFrame, 0, frameCount)
	time, offset, deltas, err := read()
	if err != nil {
		return nil, err
	}
	for frame := 0; ; frame++ {
		f := &DeformFrame{
			Frame:    Frame{Time: frameTime(frame, time)},
			Offset:   offset,
			Vertices: deltas,
		}
		frames = append(frames, f)
		if frame == frameCount-1 {
			return frames, nil
		}
		time2, offset2, deltas2, err := read()
		if err != nil {
			return nil, err
		}
		if f.Curve, err = d.readCurve(1); err != nil {
			return nil, err
		}
		time, offset, deltas = time2, offset2, deltas2
	}
}

func (d *decoder) skipDrawOrderTimeline() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := d.s.ReadF32(); err != nil { // time
			return err
		}
		offsetCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		for j := 0; j < int(offsetCount); j++ {
			if _, err := d.s.ReadVarUint(); err != nil { // slot index
				return err
			}
			if _, err := d.s.ReadVarUint(); err != nil { // move amount
				return err
			}
		}
	}
	return nil
}

func (d *decoder) skipEventTimeline() error {
	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := d.s.ReadF32(); err != nil { // time
			return err
		}
		eventIndex, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		if _, err := d.s.ReadVarInt(); err != nil { // int value
			return err
		}
		if _, err := d.s.ReadF32(); err != nil { // float value
			return err
		}
		hasString, err := d.s.ReadBool()
		if err != nil {
			return err
		}
		if hasString {
			if _, err := d.s.ReadString(); err != nil {
				return err
			}
		}
		if int(eventIndex) < len(d.eventAudio) && d.eventAudio[eventIndex] {
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
