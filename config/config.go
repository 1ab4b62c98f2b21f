package config

// DefaultSkinName is the skin every skeleton carries even when it has no
// named skins of its own.
const DefaultSkinName = "default"

var positionScale float32 = 1.0

// GetScale returns the multiplier applied to every position, length and
// dimension read from a skel stream.
func GetScale() float32 {
	return positionScale
}

func SetScale(scale float32) {
	if scale != 0 {
		positionScale = scale
	}
}
