package video

// SpritePriorityBuffer resolves which sprite owns each pixel of a scanline on
// DMG hardware, see https://gbdev.io/pandocs/OAM.html#drawing-priority:
//   - sprites with lower X coordinates have priority
//   - when X coordinates match, lower OAM indices win.
//
// Example: overlap with same X coordinates
//
//	Pixels:    10 11 12 13 14 15 16 17 18 19 20 21 22 23 24 25
//	Sprite 1:           [-----D-----]                          (X=12, OAM=1)
//	Sprite 3:           [-----C-----]                          (X=12, OAM=3)
//	Sprite 5:  [-----E-----]                                   (X=10, OAM=5)
//	Result:    [-----E-----]--D-----]
//
// Only opaque pixels are claimed, so a transparent pixel of a high priority
// sprite lets a lower priority sprite show through.
type SpritePriorityBuffer struct {
	// ownerIndex is the index into the scanline's sprite list, -1 if unowned
	ownerIndex [FramebufferWidth]int
	ownerX     [FramebufferWidth]int
	ownerOAM   [FramebufferWidth]int
}

// Clear resets the buffer for a new scanline.
func (s *SpritePriorityBuffer) Clear() {
	for i := range FramebufferWidth {
		s.ownerIndex[i] = -1
	}
}

// TryClaimPixel claims pixelX for a sprite if it beats the current owner.
func (s *SpritePriorityBuffer) TryClaimPixel(pixelX, slot, spriteX, oamIndex int) bool {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return false
	}

	if s.ownerIndex[pixelX] != -1 {
		currentX := s.ownerX[pixelX]
		if spriteX > currentX || (spriteX == currentX && oamIndex > s.ownerOAM[pixelX]) {
			return false
		}
	}

	s.ownerIndex[pixelX] = slot
	s.ownerX[pixelX] = spriteX
	s.ownerOAM[pixelX] = oamIndex
	return true
}

// Owner returns the slot owning a pixel, or -1 if none.
func (s *SpritePriorityBuffer) Owner(pixelX int) int {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return -1
	}
	return s.ownerIndex[pixelX]
}
