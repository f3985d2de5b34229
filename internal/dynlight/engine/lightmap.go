package engine

// MergeLightmap folds a dynamic light level into a packed lightmap value
// (sky << 20 | block << 4). The block part is replaced only when the dynamic
// level is brighter, keeping a sixteenth of a level of precision.
func MergeLightmap(dynamic float64, lightmap uint32) uint32 {
	if dynamic <= 0 {
		return lightmap
	}
	block := (lightmap >> 4) & 0xF
	if dynamic > float64(block) {
		luminance := uint32(dynamic * 16.0)
		lightmap &= 0xfff00000
		lightmap |= luminance & 0x000fffff
	}
	return lightmap
}
