package newton

// Intensity maps an iteration count to a brightness, min(iterations*16, 255).
func Intensity(iterations int32) uint8 {
	switch {
	case iterations <= 0:
		return 0
	case iterations >= 16:
		return 255
	default:
		return uint8(iterations * 16)
	}
}
