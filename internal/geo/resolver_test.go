package geo

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return f
}

func TestResolvePassThrough(t *testing.T) {
	lon, lat, ok := NewResolver(nil).Resolve("-0.1", "51.5")
	require.True(t, ok)
	assert.Equal(t, "-0.1", lon)
	assert.Equal(t, "51.5", lat)
}

func TestResolveSwapped(t *testing.T) {
	lon, lat, ok := NewResolver(nil).Resolve("51.5000001", "-0.1234567")
	require.True(t, ok)
	assert.Equal(t, "-0.123457", lon)
	assert.Equal(t, "51.5", lat)
}

func TestResolveReprojects(t *testing.T) {
	for _, pair := range [][2]string{{"530000", "180000"}, {"180000", "530000"}} {
		lon, lat, ok := NewResolver(nil).Resolve(pair[0], pair[1])
		require.True(t, ok)
		assert.InDelta(t, -0.129, parse(t, lon), 0.01)
		assert.InDelta(t, 51.505, parse(t, lat), 0.01)
	}
}

func TestGridToAiryWorkedExample(t *testing.T) {
	// Ordnance Survey worked example: 52°39'27.2531"N 1°43'4.5177"E.
	lat, lon := gridToAiry(651409.903, 313177.270)
	assert.InDelta(t, 52.657570, degrees(lat), 0.00001)
	assert.InDelta(t, 1.717922, degrees(lon), 0.00001)
}

func TestOSGB36ShiftsToWGS84(t *testing.T) {
	lon, lat, err := OSGB36{}.ToWGS84(651409.903, 313177.270)
	require.NoError(t, err)
	assert.InDelta(t, 1.716, lon, 0.002)
	assert.InDelta(t, 52.658, lat, 0.002)
}

func TestResolveFailures(t *testing.T) {
	cases := [][2]string{
		{"-50000", "-50000"},
		{"800000", "1300000"},
		{"east", "51.5"},
		{"1e99999999", "51.5"},
	}
	for _, c := range cases {
		lon, lat, ok := NewResolver(nil).Resolve(c[0], c[1])
		assert.False(t, ok, c)
		assert.Empty(t, lon)
		assert.Empty(t, lat)
	}
}

func TestResolveBlank(t *testing.T) {
	for _, c := range [][2]string{{"", ""}, {"530000", ""}, {"", " "}} {
		lon, lat, ok := NewResolver(nil).Resolve(c[0], c[1])
		assert.True(t, ok)
		assert.Equal(t, c[0], lon)
		assert.Equal(t, c[1], lat)
	}
}

type fixedReprojector struct {
	calls [][2]float64
	lon   float64
	lat   float64
}

func (f *fixedReprojector) ToWGS84(e, n float64) (float64, float64, error) {
	f.calls = append(f.calls, [2]float64{e, n})
	if len(f.calls) == 1 {
		return 0, 0, errors.New("out of range")
	}
	return f.lon, f.lat, nil
}

func TestResolveRetriesSwappedProjection(t *testing.T) {
	rp := &fixedReprojector{lon: -1.5, lat: 53.25}
	lon, lat, ok := NewResolver(rp).Resolve("1000", "2000")
	require.True(t, ok)
	assert.Equal(t, "-1.5", lon)
	assert.Equal(t, "53.25", lat)
	assert.Equal(t, [][2]float64{{1000, 2000}, {2000, 1000}}, rp.calls)
}
