package geo

import (
	"errors"
	"math"
)

// Reprojector converts a projected (easting, northing) pair to WGS84.
type Reprojector interface {
	ToWGS84(easting, northing float64) (lon, lat float64, err error)
}

var errNotFinite = errors.New("coordinate is not finite")

// Airy 1830 ellipsoid and National Grid projection constants (EPSG:27700).
const (
	airyA = 6377563.396
	airyB = 6356256.909

	gridF0 = 0.9996012717
	gridE0 = 400000.0
	gridN0 = -100000.0

	wgs84A = 6378137.0
	wgs84B = 6356752.314245
)

var (
	gridLat0 = radians(49)
	gridLon0 = radians(-2)
)

// OSGB36 to WGS84 Helmert parameters: metres, ppm, arc seconds.
const (
	helmertTx = 446.448
	helmertTy = -125.157
	helmertTz = 542.060
	helmertS  = -20.4894
	helmertRx = 0.1502
	helmertRy = 0.2470
	helmertRz = 0.8421
)

// OSGB36 reprojects British National Grid coordinates.
type OSGB36 struct{}

func (OSGB36) ToWGS84(easting, northing float64) (float64, float64, error) {
	if !finite(easting) || !finite(northing) {
		return 0, 0, errNotFinite
	}
	lat, lon := gridToAiry(easting, northing)
	x, y, z := toCartesian(lat, lon, airyA, airyB)
	x, y, z = helmert(x, y, z)
	lat, lon = fromCartesian(x, y, z, wgs84A, wgs84B)
	lon, lat = degrees(lon), degrees(lat)
	if !finite(lon) || !finite(lat) {
		return 0, 0, errNotFinite
	}
	return lon, lat, nil
}

// gridToAiry is the inverse transverse Mercator projection onto Airy 1830.
func gridToAiry(e, north float64) (lat, lon float64) {
	a, b := airyA, airyB
	e2 := 1 - (b*b)/(a*a)
	n := (a - b) / (a + b)
	n2, n3 := n*n, n*n*n

	meridional := func(phi float64) float64 {
		d, s := phi-gridLat0, phi+gridLat0
		return b * gridF0 * ((1+n+1.25*n2+1.25*n3)*d -
			(3*n+3*n2+2.625*n3)*math.Sin(d)*math.Cos(s) +
			(1.875*n2+1.875*n3)*math.Sin(2*d)*math.Cos(2*s) -
			(35.0/24.0)*n3*math.Sin(3*d)*math.Cos(3*s))
	}

	phi := gridLat0
	m := 0.0
	for i := 0; i < 100; i++ {
		phi = (north-gridN0-m)/(a*gridF0) + phi
		m = meridional(phi)
		if math.Abs(north-gridN0-m) < 0.00001 {
			break
		}
	}

	sinPhi := math.Sin(phi)
	nu := a * gridF0 / math.Sqrt(1-e2*sinPhi*sinPhi)
	rho := a * gridF0 * (1 - e2) / math.Pow(1-e2*sinPhi*sinPhi, 1.5)
	eta2 := nu/rho - 1

	tan := math.Tan(phi)
	tan2, tan4, tan6 := tan*tan, math.Pow(tan, 4), math.Pow(tan, 6)
	sec := 1 / math.Cos(phi)

	vii := tan / (2 * rho * nu)
	viii := tan / (24 * rho * math.Pow(nu, 3)) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	ix := tan / (720 * rho * math.Pow(nu, 5)) * (61 + 90*tan2 + 45*tan4)
	x := sec / nu
	xi := sec / (6 * math.Pow(nu, 3)) * (nu/rho + 2*tan2)
	xii := sec / (120 * math.Pow(nu, 5)) * (5 + 28*tan2 + 24*tan4)
	xiia := sec / (5040 * math.Pow(nu, 7)) * (61 + 662*tan2 + 1320*tan4 + 720*tan6)

	de := e - gridE0
	lat = phi - vii*de*de + viii*math.Pow(de, 4) - ix*math.Pow(de, 6)
	lon = gridLon0 + x*de - xi*math.Pow(de, 3) + xii*math.Pow(de, 5) - xiia*math.Pow(de, 7)
	return lat, lon
}

func toCartesian(lat, lon, a, b float64) (x, y, z float64) {
	e2 := 1 - (b*b)/(a*a)
	sinLat := math.Sin(lat)
	nu := a / math.Sqrt(1-e2*sinLat*sinLat)
	x = nu * math.Cos(lat) * math.Cos(lon)
	y = nu * math.Cos(lat) * math.Sin(lon)
	z = (1 - e2) * nu * sinLat
	return x, y, z
}

func helmert(x, y, z float64) (float64, float64, float64) {
	s := 1 + helmertS*1e-6
	rx := radians(helmertRx / 3600)
	ry := radians(helmertRy / 3600)
	rz := radians(helmertRz / 3600)
	return helmertTx + s*x - rz*y + ry*z,
		helmertTy + rz*x + s*y - rx*z,
		helmertTz - ry*x + rx*y + s*z
}

func fromCartesian(x, y, z, a, b float64) (lat, lon float64) {
	e2 := 1 - (b*b)/(a*a)
	p := math.Hypot(x, y)
	lat = math.Atan2(z, p*(1-e2))
	for i := 0; i < 100; i++ {
		sinLat := math.Sin(lat)
		nu := a / math.Sqrt(1-e2*sinLat*sinLat)
		next := math.Atan2(z+e2*nu*sinLat, p)
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}
	return lat, math.Atan2(y, x)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
