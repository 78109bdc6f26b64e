package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "lap_data", KindLapData.String())
	assert.Equal(t, "time_trial", KindTimeTrial.String())
	assert.Equal(t, "unknown(200)", Kind(200).String())
}

func TestKindIsPhysics(t *testing.T) {
	assert.True(t, KindMotion.IsPhysics())
	assert.True(t, KindCarTelemetry.IsPhysics())
	assert.True(t, KindMotionEx.IsPhysics())
	assert.False(t, KindLapData.IsPhysics())
	assert.False(t, KindSession.IsPhysics())
	assert.False(t, KindEvent.IsPhysics())
}

func TestEnumUnknownFallback(t *testing.T) {
	assert.Equal(t, "unknown(42)", Weather(42).String())
	assert.Equal(t, "unknown(99)", PenaltyType(99).String())
	assert.Equal(t, "unknown(200)", InfringementType(200).String())
	assert.Equal(t, "unknown(30)", Surface(30).String())
}

func TestSessionTypeFromRaw(t *testing.T) {
	assert.Equal(t, SessionRace, SessionTypeFromRaw(FormatF123, 15))
	assert.Equal(t, SessionRace, SessionTypeFromRaw(FormatF124, 15))
	assert.Equal(t, SessionTimeTrial, SessionTypeFromRaw(FormatF125, 18))
	assert.Equal(t, SessionUnknown, SessionTypeFromRaw(FormatF124, 200))
}

func TestSessionTypeIsRace(t *testing.T) {
	assert.True(t, SessionRace.IsRace())
	assert.True(t, SessionRace2.IsRace())
	assert.True(t, SessionRace3.IsRace())
	assert.False(t, SessionQualifying1.IsRace())
	assert.False(t, SessionTimeTrial.IsRace())
}

func TestCompoundFromRaw(t *testing.T) {
	tests := []struct {
		name   string
		format uint16
		raw    uint8
		want   TyreCompound
	}{
		{"C5", FormatF123, 16, CompoundC5},
		{"C1", FormatF123, 20, CompoundC1},
		{"intermediate", FormatF123, 7, CompoundInter},
		{"wet", FormatF125, 8, CompoundWet},
		{"C0 exists from 2024", FormatF124, 21, CompoundC0},
		{"C0 unknown in 2023", FormatF123, 21, CompoundUnknown},
		{"C6 exists from 2025", FormatF125, 22, CompoundC6},
		{"C6 unknown in 2024", FormatF124, 22, CompoundUnknown},
		{"f2 soft", FormatF124, 12, CompoundF2Soft},
		{"out of range", FormatF125, 99, CompoundUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompoundFromRaw(tt.format, tt.raw))
		})
	}
}

func TestVisualCompoundFromRaw(t *testing.T) {
	assert.Equal(t, VisualSoft, VisualCompoundFromRaw(16))
	assert.Equal(t, VisualMedium, VisualCompoundFromRaw(17))
	assert.Equal(t, VisualHard, VisualCompoundFromRaw(18))
	assert.Equal(t, VisualInter, VisualCompoundFromRaw(7))
	assert.Equal(t, VisualWet, VisualCompoundFromRaw(8))
	assert.Equal(t, VisualUnknown, VisualCompoundFromRaw(0))
}

func TestResultStatusIsTerminal(t *testing.T) {
	assert.False(t, ResultActive.IsTerminal())
	assert.False(t, ResultInvalid.IsTerminal())
	assert.True(t, ResultFinished.IsTerminal())
	assert.True(t, ResultDNF.IsTerminal())
	assert.True(t, ResultDisqualified.IsTerminal())
	assert.True(t, ResultRetired.IsTerminal())
}
