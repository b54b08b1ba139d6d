package debug

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebug/jeebie/cpu"
	"github.com/valerio/jeebug/jeebie/interrupt"
	"github.com/valerio/jeebug/jeebie/video"
)

func TestBreakpoints(t *testing.T) {
	b := NewBreakpoints()
	assert.True(t, b.Empty())

	b.Set(0x0150)
	b.Set(0x0100)
	b.SetOpcode(0x76)
	assert.False(t, b.Empty())
	assert.Equal(t, []uint16{0x0100, 0x0150}, b.Addresses())
	assert.Equal(t, []uint8{0x76}, b.Opcodes())

	hit, ok := b.Match(0x0150, 0x00)
	require.True(t, ok)
	assert.Equal(t, Hit{Kind: AddressHit, Address: 0x0150}, hit)

	hit, ok = b.Match(0x0200, 0x76)
	require.True(t, ok)
	assert.Equal(t, OpcodeHit, hit.Kind)
	assert.Equal(t, "opcode", hit.Kind.String())

	_, ok = b.Match(0x0200, 0x00)
	assert.False(t, ok)

	assert.False(t, b.Toggle(0x0150))
	assert.True(t, b.Toggle(0x0151))
	b.Clear(0x0100)
	b.ClearOpcode(0x76)
	assert.Equal(t, []uint16{0x0151}, b.Addresses())
	assert.Empty(t, b.Opcodes())
}

type flat []byte

func (f flat) Peek(address uint16) byte { return f[address] }

func TestHexDump(t *testing.T) {
	mem := make(flat, 0x10000)
	copy(mem[0x0134:], "TETRIS")

	out := HexDump(mem, 0x0134, 6)
	assert.Equal(t,
		"0130              54 45 54 52 49 53                        TETRIS      \n",
		out)

	lines := strings.Split(strings.TrimSuffix(HexDump(mem, 0xFFF8, 16), "\n"), "\n")
	assert.Len(t, lines, 1, "stops at the end of the address space")

	assert.Empty(t, HexDump(mem, 0, 0))
}

func TestExtractOAMData(t *testing.T) {
	sprites := []video.Sprite{
		{OAMIndex: 0, Y: 10, X: 20},
		{OAMIndex: 1, Y: 30, X: 20},
		{OAMIndex: 2, Y: 5, X: 0, TileIndex: 0x42},
	}
	data := ExtractOAMData(sprites, 12, 8)

	assert.Equal(t, 2, data.ActiveSprites)
	visible := data.VisibleSprites()
	require.Len(t, visible, 2)
	assert.Equal(t, 0, visible[0].OAMIndex)
	assert.Equal(t, 2, visible[1].OAMIndex)
	assert.Equal(t, "Sprite  2: Y=  5 X=  0  Tile=0x42 Flags=0x00 [ACTIVE]", visible[1].String())
	assert.Equal(t, "Current Line: 12 | Active Sprites: 2/10 | Height: 8px", data.FormatSummary())
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		CPU:       cpu.Registers{A: 0x01, F: 0xB0, B: 0x00, C: 0x13, SP: 0xFFFE, PC: 0x0150},
		IME:       true,
		IE:        0x05,
		IF:        0xE5,
		ROMBank:   5,
		CallStack: []cpu.CallFrame{{Site: 0x0100, Target: 0x0200, Return: 0x0103}},
		Fault:     errors.New("boom"),
	}

	out := s.String()
	assert.Contains(t, out, "AF=01B0 BC=0013")
	assert.Contains(t, out, "PC=0150")
	assert.Contains(t, out, "Flags=Z-HC IME=on")
	assert.Contains(t, out, "Pending=[VBlank Timer]")
	assert.Contains(t, out, "ROM bank=5")
	assert.Contains(t, out, "call 0100 -> 0200 (ret 0103)")
	assert.Contains(t, out, "Fault: boom")

	assert.Equal(t, []interrupt.Kind{interrupt.VBlank, interrupt.Timer}, s.PendingInterrupts())
}

func TestWriteFramePNG(t *testing.T) {
	var frame video.Frame
	frame[0] = 3

	var buf bytes.Buffer
	require.NoError(t, WriteFramePNG(&buf, &frame))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, video.FramebufferWidth, img.Bounds().Dx())
	assert.Equal(t, video.FramebufferHeight, img.Bounds().Dy())

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0, 0, 0, 0xFFFF}, []uint32{r, g, b, a})
	r, _, _, _ = img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
}

func TestSaveFramePNG(t *testing.T) {
	dir := t.TempDir()
	var frame video.Frame

	path, err := SaveFramePNG(&frame, "capture", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
