// Package geo turns raw GeoX/GeoY pairs into WGS84 longitude and latitude.
package geo

import (
	"strings"

	"github.com/shopspring/decimal"

	"harmonise/internal/normalize"
)

// Bounding box accepted as "within England".
var (
	minLat = decimal.RequireFromString("49.5")
	maxLat = decimal.RequireFromString("56.0")
	minLon = decimal.RequireFromString("-7.0")
	maxLon = decimal.RequireFromString("2.0")
)

// Precision of resolved coordinates, in fractional digits.
const Precision = 6

// Resolver picks the coordinate order and projection that lands in England.
type Resolver struct {
	reprojector Reprojector
}

// NewResolver uses OSGB36 when r is nil.
func NewResolver(r Reprojector) *Resolver {
	if r == nil {
		r = OSGB36{}
	}
	return &Resolver{reprojector: r}
}

// WithinEngland reports whether (lon, lat) falls strictly inside the box.
func WithinEngland(lon, lat decimal.Decimal) bool {
	return lat.GreaterThan(minLat) && lat.LessThan(maxLat) &&
		lon.GreaterThan(minLon) && lon.LessThan(maxLon)
}

// Resolve returns canonical (lon, lat) strings. A pair with a blank side is
// returned as given. ok is false when no interpretation of the pair falls
// within England.
func (r *Resolver) Resolve(geoX, geoY string) (lon, lat string, ok bool) {
	if strings.TrimSpace(geoX) == "" || strings.TrimSpace(geoY) == "" {
		// a half pair is kept as given, not blanked or logged
		return geoX, geoY, true
	}

	x, okX := normalize.ParseDecimal(geoX)
	y, okY := normalize.ParseDecimal(geoY)
	if !okX || !okY {
		return "", "", false
	}

	switch {
	case WithinEngland(x, y):
		return format(x, y)
	case WithinEngland(y, x):
		return format(y, x)
	}

	for _, pair := range [][2]decimal.Decimal{{x, y}, {y, x}} {
		e, _ := pair[0].Float64()
		n, _ := pair[1].Float64()
		lonF, latF, err := r.reprojector.ToWGS84(e, n)
		if err != nil {
			continue
		}
		pLon, pLat := decimal.NewFromFloat(lonF), decimal.NewFromFloat(latF)
		if WithinEngland(pLon, pLat) {
			return format(pLon, pLat)
		}
	}
	return "", "", false
}

func format(lon, lat decimal.Decimal) (string, string, bool) {
	return normalize.FormatDecimal(lon, Precision), normalize.FormatDecimal(lat, Precision), true
}
