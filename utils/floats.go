package utils

// Tolerance tiers for default pruning. A value is kept in the document only
// when it differs from its default by strictly more than the tier tolerance.
const (
	TolTransform float32 = 1e-2 // bone and constraint offsets
	TolGeometry  float32 = 1e-3 // attachment geometry and keyframe times
)

func AbsF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// NearDefault reports whether v collapses onto def within tol.
func NearDefault(v, def, tol float32) bool {
	return AbsF32(v-def) <= tol
}

// PruneZero flushes values within tol of zero so that omitempty JSON fields
// drop them.
func PruneZero(v, tol float32) float32 {
	if NearDefault(v, 0, tol) {
		return 0
	}
	return v
}

// OptFloat returns nil when v collapses onto def, used for fields whose
// default is not the zero value.
func OptFloat(v, def, tol float32) *float32 {
	if NearDefault(v, def, tol) {
		return nil
	}
	return &v
}
