package norms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/rng"
)

func TestLookup_125ReusesBand250(t *testing.T) {
	assert.Equal(t, Lookup(Male, "60s", 250), Lookup(Male, "60s", 125))
}

func TestLookup_NearestAgeGroup(t *testing.T) {
	assert.Equal(t, Lookup(Female, "70s", 4000), Lookup(Female, "80s", 4000))
	assert.Equal(t, Lookup(Female, "20s", 4000), Lookup(Female, "10s", 4000))
}

func TestLookup_WorsensWithAge(t *testing.T) {
	for _, sex := range Sexes {
		prev := -100.0
		for _, age := range AgeGroups {
			m := Lookup(sex, age, 4000).Median
			assert.GreaterOrEqual(t, m, prev, "%s %s", sex, age)
			prev = m
		}
	}
}

func TestParseAgeGroup(t *testing.T) {
	tests := map[string]AgeGroup{
		"40s": "40s",
		"47":  "40s",
		"20":  "20s",
		"15":  "20s",
		"92":  "70s",
	}
	for in, want := range tests {
		got, err := ParseAgeGroup(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAgeGroup("old")
	assert.Error(t, err)
}

func TestParseSex(t *testing.T) {
	s, err := ParseSex("female")
	require.NoError(t, err)
	assert.Equal(t, Female, s)

	_, err = ParseSex("x")
	assert.Error(t, err)
}

func TestSample_WithinBandAndLimits(t *testing.T) {
	r := rng.New(99)
	for i := 0; i < 500; i++ {
		for _, age := range AgeGroups {
			for _, f := range audiometry.Frequencies {
				v := Sample(r, Male, age, f)
				b := Lookup(Male, age, f)
				assert.Zero(t, v%5)
				assert.GreaterOrEqual(t, v, audiometry.MinLevel(f))
				// Quantization can move at most 2.5 dB past the band edge.
				assert.LessOrEqual(t, float64(v), b.Plus2SD+2.5)
			}
		}
	}
}

func TestSample_Young_NeverAbove15(t *testing.T) {
	r := rng.New(1)
	for i := 0; i < 1000; i++ {
		for _, f := range audiometry.Frequencies {
			assert.LessOrEqual(t, Sample(r, Female, "20s", f), 15)
		}
	}
}

func TestSampleBC_TracksAC(t *testing.T) {
	r := rng.New(4)
	for i := 0; i < 500; i++ {
		for _, f := range audiometry.BCFrequencies() {
			ac := Sample(r, Female, "50s", f)
			bc := SampleBC(r, ac, f)
			assert.LessOrEqual(t, bc, ac+5)
			assert.GreaterOrEqual(t, bc, audiometry.MinLevel(f))
		}
	}
}

func TestClinicalFloor(t *testing.T) {
	assert.Equal(t, 5, Finalize(-8, 125, 70))
	assert.Equal(t, 5, Finalize(0, 250, 90))
	assert.Equal(t, -10, Finalize(-12, 1000, 110))
}

func TestInNormalRange(t *testing.T) {
	assert.True(t, InNormalRange(Male, "20s", 1000, 15))
	assert.False(t, InNormalRange(Male, "20s", 1000, 20))
}
