package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T, h *fakeHost, opts ...Option) *System {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s, err := NewSystem(DefaultTables(), h, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSystem(t *testing.T) {
	s, err := NewSystem(nil, newFakeHost(12, 0), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, ModeOther, s.Mode())
	assert.Equal(t, DefaultTables(), s.Tables())

	_, err = NewSystem(DefaultTables(), nil)
	assert.Error(t, err)

	bad := DefaultTables()
	bad.Boundaries.DayEnd = 0
	_, err = NewSystem(bad, newFakeHost(12, 0))
	assert.ErrorIs(t, err, ErrInvalidTables)
}

func TestApplyFilters_MidnightRow(t *testing.T) {
	h := newFakeHost(0, 0)
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)

	result := s.ApplyFilters()
	require.True(t, result.Applied)
	assert.Equal(t, Midnight, result.Phase)

	filter := DefaultFilterTable().Midnight[0]
	assert.Equal(t, filter, result.Filter)

	staging := s.Staging()
	for i := 0; i < ColorsPerRow; i++ {
		assert.Equal(t, ApplyProportional(h.faded.At(5, i), filter), staging.At(5, i), "row 5 colour %d", i)
	}
}

func TestApplyFilters_DayIsIdentity(t *testing.T) {
	h := newFakeHost(12, 0)
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)

	result := s.ApplyFilters()
	require.True(t, result.Applied)
	assert.Equal(t, Day, result.Phase)
	assert.False(t, result.Lighting)
	assert.Equal(t, 3, result.ExemptRows)
	assert.Equal(t, PaletteRows-3, result.FilteredRows)
	assert.Equal(t, h.faded, s.Staging())
}

func TestApplyFilters_MapExceptionLeavesStagingAlone(t *testing.T) {
	h := newFakeHost(22, 0)
	h.mapType = MapTypeIndoor
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)

	result := s.ApplyFilters()
	assert.False(t, result.Applied)
	assert.Equal(t, BypassMapException, result.Bypass)
	assert.Equal(t, Buffer{}, s.Staging())

	display := &recordingDisplay{}
	assert.False(t, s.TransferPalette(display))
	assert.Equal(t, h.faded, display.vram)
	assert.Equal(t, 1, display.transfers)
}

func TestApplyFilters_NightlightGlows(t *testing.T) {
	h := newFakeHost(21, 30)
	for _, slot := range DefaultLightingSlots() {
		h.unfaded.Set(slot.Row, slot.Index, 0)
	}
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)

	result := s.ApplyFilters()
	require.True(t, result.Applied)
	assert.True(t, result.Lighting)
	assert.Equal(t, len(DefaultLightingSlots()), result.LitSlots)

	display := &recordingDisplay{}
	require.True(t, s.TransferPalette(display))
	assert.Equal(t, RGB(30, 30, 5), display.vram.At(0, 1))
	assert.Equal(t, RGB(26, 25, 4), display.vram.At(6, 2))
}

func TestApplyFilters_NightlightWaitsForFade(t *testing.T) {
	h := newFakeHost(22, 0)
	h.fading = true
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)

	_, filter, err := s.CurrentFilter(ClockTime{Hour: 22})
	require.NoError(t, err)

	result := s.ApplyFilters()
	require.True(t, result.Lighting)
	assert.Equal(t, 0, result.LitSlots)

	// The unlit window follows the night filter like the rest of its row.
	staging := s.Staging()
	assert.Equal(t, ApplyProportional(h.faded.At(0, 1), filter), staging.At(0, 1))
	assert.NotEqual(t, h.faded.At(0, 1), staging.At(0, 1))
	assert.Equal(t, RGB(30, 30, 5), h.unfaded.At(0, 1))
}

func TestApplyFilters_CombatHasNoLighting(t *testing.T) {
	h := newFakeHost(22, 0)
	h.unfaded.Set(0, 1, 0)
	s := newTestSystem(t, h)
	s.SetMode(ModeCombat)

	result := s.ApplyFilters()
	require.True(t, result.Applied)
	assert.False(t, result.Lighting)
	// Combat row 0 is an exception, so the source colour survives untouched.
	staging := s.Staging()
	assert.Equal(t, h.faded.At(0, 1), staging.At(0, 1))
	assert.Equal(t, Color15(0), h.unfaded.At(0, 1))

	for i := 0; i < ColorsPerRow; i++ {
		assert.Equal(t, h.faded.At(20, i), staging.At(20, i), "sprite row colour %d", i)
		assert.Equal(t, ApplyProportional(h.faded.At(2, i), RGB(14, 14, 6)), staging.At(2, i))
	}
}

func TestApplyFilters_OtherModeBypasses(t *testing.T) {
	h := newFakeHost(22, 0)
	s := newTestSystem(t, h)

	result := s.ApplyFilters()
	assert.False(t, result.Applied)
	assert.Equal(t, BypassMode, result.Bypass)

	display := &recordingDisplay{}
	assert.False(t, s.TransferPalette(display))
	assert.Equal(t, h.faded, display.vram)
}

func TestApplyFilters_BadClockBypasses(t *testing.T) {
	h := newFakeHost(25, 0)
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)

	result := s.ApplyFilters()
	assert.False(t, result.Applied)
	assert.Equal(t, BypassClock, result.Bypass)

	display := &recordingDisplay{}
	assert.False(t, s.TransferPalette(display))
	assert.Equal(t, h.faded, display.vram)
}

func TestApplyFilters_SubtractiveStrategy(t *testing.T) {
	h := newFakeHost(22, 0)
	s := newTestSystem(t, h, WithFilter(ApplySubtractive))
	s.SetMode(ModeOverworld)

	require.True(t, s.ApplyFilters().Applied)

	staging := s.Staging()
	for i := 0; i < ColorsPerRow; i++ {
		assert.Equal(t, ApplySubtractive(h.faded.At(2, i), RGB(14, 14, 6)), staging.At(2, i))
	}
}

func TestApplyFilters_SpriteTagException(t *testing.T) {
	h := newFakeHost(22, 0)
	h.tags[3] = 0xD6FF
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)

	result := s.ApplyFilters()
	require.True(t, result.Applied)
	assert.Equal(t, 4, result.ExemptRows)

	staging := s.Staging()
	assert.Equal(t, h.faded.Row(19), staging.Row(19))
	assert.NotEqual(t, h.faded.Row(20), staging.Row(20))
}

func TestTransferPalette_StaleStagingNotUsed(t *testing.T) {
	h := newFakeHost(22, 0)
	s := newTestSystem(t, h)
	s.SetMode(ModeOverworld)
	require.True(t, s.ApplyFilters().Applied)

	display := &recordingDisplay{}
	require.True(t, s.TransferPalette(display))
	assert.NotEqual(t, h.faded, display.vram)

	// A new frame on an exception map must not reuse the old staging buffer.
	h.mapType = MapTypeUnderground
	s.ApplyFilters()
	h.mapType = MapTypeRoute
	assert.False(t, s.TransferPalette(display))
	assert.Equal(t, h.faded, display.vram)
}

func TestCurrentFilter(t *testing.T) {
	s := newTestSystem(t, newFakeHost(0, 0))

	phase, filter, err := s.CurrentFilter(ClockTime{Hour: 7, Minute: 59})
	require.NoError(t, err)
	assert.Equal(t, Dawn, phase)
	assert.Equal(t, DefaultFilterTable().Dawn[29], filter)

	_, _, err = s.CurrentFilter(ClockTime{Hour: 7, Minute: 60})
	assert.ErrorIs(t, err, ErrClockOutOfRange)
}
