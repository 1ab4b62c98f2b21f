package skel

import (
	"fmt"

	"github.com/mogaika/spine_skel_browser/config"
	"github.com/mogaika/spine_skel_browser/utils"
)

// readSkins decodes the unconditional default skin, then the named skins.
// The default skin is always materialized, even when it holds no attachments,
// and always sits at skin index 0.
func (d *decoder) readSkins() error {
	defaultSkin := &Skin{Name: config.DefaultSkinName}
	d.doc.Skins = append(d.doc.Skins, defaultSkin)

	slotCount, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	if slotCount > 0 {
		if err := d.readSkinAttachments(defaultSkin, int(slotCount)); err != nil {
			return err
		}
	}

	count, err := d.s.ReadVarUint()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		skin, err := d.readNamedSkin()
		if err != nil {
			return err
		}
		d.doc.Skins = append(d.doc.Skins, skin)
	}
	return nil
}

func (d *decoder) readNamedSkin() (*Skin, error) {
	name, err := d.stringRef("skins")
	if err != nil {
		return nil, err
	}
	skin := &Skin{Name: utils.Str(name)}
	section := fmt.Sprintf("skin %s", skin.Name)

	boneCount, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(boneCount); i++ {
		b, err := d.s.ReadVarUint()
		if err != nil {
			return nil, err
		}
		skin.Bones = append(skin.Bones, d.boneName(int(b), section))
	}

	ikCount, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(ikCount); i++ {
		c, err := d.s.ReadVarUint()
		if err != nil {
			return nil, err
		}
		if int(c) < len(d.doc.IK) {
			skin.IK = append(skin.IK, d.doc.IK[c].Name)
		}
	}
	transformCount, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(transformCount); i++ {
		c, err := d.s.ReadVarUint()
		if err != nil {
			return nil, err
		}
		if int(c) < len(d.doc.Transform) {
			skin.Transform = append(skin.Transform, d.doc.Transform[c].Name)
		}
	}
	// Path constraint references are consumed but dropped, like the
	// constraints themselves.
	pathCount, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(pathCount); i++ {
		if _, err := d.s.ReadVarUint(); err != nil {
			return nil, err
		}
	}

	slotCount, err := d.s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if err := d.readSkinAttachments(skin, int(slotCount)); err != nil {
		return nil, err
	}
	return skin, nil
}

func (d *decoder) readSkinAttachments(skin *Skin, slotCount int) error {
	section := fmt.Sprintf("skin %s", skin.Name)
	for i := 0; i < slotCount; i++ {
		slotIndex, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		slotName := d.slotName(int(slotIndex), section)

		attachmentCount, err := d.s.ReadVarUint()
		if err != nil {
			return err
		}
		for j := 0; j < int(attachmentCount); j++ {
			entryName, err := d.stringRef(section)
			if err != nil {
				return err
			}
			name, attachment, err := d.readAttachment(utils.Str(entryName), section)
			if attachment != nil {
				if skin.Attachments == nil {
					skin.Attachments = make(map[string]map[string]Attachment)
				}
				if skin.Attachments[slotName] == nil {
					skin.Attachments[slotName] = make(map[string]Attachment)
				}
				skin.Attachments[slotName][name] = attachment
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveLinkedMeshes is the second pass over already-built structures: each
// linked mesh copies UVs, triangles and hull length from its named parent
// mesh. A missing skin or parent degrades that one attachment to empty
// geometry; the document survives.
func (d *decoder) resolveLinkedMeshes() {
	for _, ref := range d.linked {
		skinName := config.DefaultSkinName
		if ref.skin != nil {
			skinName = *ref.skin
		}
		var skin *Skin
		for _, s := range d.doc.Skins {
			if s.Name == skinName {
				skin = s
				break
			}
		}
		if skin == nil {
			d.diag(DiagUnresolvedLinkedMesh, "linked meshes",
				"Skin %q not found for linked mesh parent %q", skinName, ref.parent)
			continue
		}
		parent, _ := skin.attachment(ref.parent).(*MeshAttachment)
		if parent == nil {
			d.diag(DiagUnresolvedLinkedMesh, "linked meshes",
				"Parent mesh %q not found in skin %q", ref.parent, skinName)
			continue
		}
		ref.target.UVs = parent.UVs
		ref.target.Triangles = parent.Triangles
		ref.target.Hull = parent.Hull
	}
	d.linked = nil
}
