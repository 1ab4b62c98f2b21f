package skel

import (
	"errors"
	"fmt"

	"github.com/mogaika/spine_skel_browser/utils"
)

// DiagnosticKind classifies decode faults. Soft faults substitute a zero
// value and let the decode continue; the rest desynchronize the cursor and
// end the walk with whatever was materialized so far.
type DiagnosticKind string

const (
	DiagTruncatedStream        DiagnosticKind = "TruncatedStream"
	DiagInvalidStringReference DiagnosticKind = "InvalidStringReference"
	DiagInvalidBoneReference   DiagnosticKind = "InvalidBoneReference"
	DiagInvalidSlotReference   DiagnosticKind = "InvalidSlotReference"
	DiagInvalidSkinReference   DiagnosticKind = "InvalidSkinReference"
	DiagUnresolvedLinkedMesh   DiagnosticKind = "UnresolvedLinkedMesh"
	DiagUnknownAttachmentType  DiagnosticKind = "UnknownAttachmentType"
	DiagUnknownTimelineType    DiagnosticKind = "UnknownTimelineType"
)

// Diagnostic is one recorded decode fault. Section names the list the fault
// was isolated to ("bones", "skin goblin", "animation walk", ...).
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Section string         `json:"section"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Section, d.Message)
}

var (
	errUnknownAttachmentType = errors.New("unknown attachment type tag")
	errUnknownTimelineType   = errors.New("unknown timeline type tag")
)

func classify(err error) DiagnosticKind {
	switch {
	case errors.Is(err, utils.ErrUnexpectedEOS):
		return DiagTruncatedStream
	case errors.Is(err, errUnknownAttachmentType):
		return DiagUnknownAttachmentType
	case errors.Is(err, errUnknownTimelineType):
		return DiagUnknownTimelineType
	}
	return DiagTruncatedStream
}
