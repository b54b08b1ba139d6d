package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpritePriorityBuffer_TryClaimPixel(t *testing.T) {
	type claim struct{ slot, spriteX, oam int }
	tests := []struct {
		name          string
		claims        []claim
		pixelX        int
		expectedOwner int
	}{
		{
			name:          "unowned pixel",
			claims:        []claim{{slot: 2, spriteX: 20, oam: 7}},
			pixelX:        25,
			expectedOwner: 2,
		},
		{
			name:          "lower X wins regardless of order",
			claims:        []claim{{slot: 0, spriteX: 30, oam: 1}, {slot: 1, spriteX: 26, oam: 9}},
			pixelX:        30,
			expectedOwner: 1,
		},
		{
			name:          "higher X loses",
			claims:        []claim{{slot: 0, spriteX: 26, oam: 9}, {slot: 1, spriteX: 30, oam: 1}},
			pixelX:        30,
			expectedOwner: 0,
		},
		{
			name:          "same X lower OAM index wins",
			claims:        []claim{{slot: 0, spriteX: 12, oam: 3}, {slot: 1, spriteX: 12, oam: 1}},
			pixelX:        14,
			expectedOwner: 1,
		},
		{
			name:          "out of range pixel",
			claims:        []claim{{slot: 0, spriteX: -8, oam: 0}},
			pixelX:        -3,
			expectedOwner: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buffer SpritePriorityBuffer
			buffer.Clear()
			for _, c := range tt.claims {
				buffer.TryClaimPixel(tt.pixelX, c.slot, c.spriteX, c.oam)
			}
			assert.Equal(t, tt.expectedOwner, buffer.Owner(tt.pixelX))
		})
	}
}

func TestSpritePriorityBuffer_Clear(t *testing.T) {
	var buffer SpritePriorityBuffer
	buffer.Clear()
	buffer.TryClaimPixel(50, 3, 48, 3)
	assert.Equal(t, 3, buffer.Owner(50))

	buffer.Clear()
	for i := range FramebufferWidth {
		assert.Equal(t, -1, buffer.Owner(i))
	}
}
