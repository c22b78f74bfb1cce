package geospatial

import "math"

// WGS 84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
	wgs84B = wgs84A * (1 - wgs84F)
)

const (
	vincentyMaxIter   = 200
	vincentyTolerance = 1e-12
)

// Distance returns the geodesic distance in meters between two points on the
// WGS 84 ellipsoid. Nearly antipodal pairs, where Vincenty does not converge,
// fall back to Haversine.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if d, ok := Vincenty(lat1, lon1, lat2, lon2); ok {
		return d
	}
	return Haversine(lat1, lon1, lat2, lon2)
}

// Vincenty solves the inverse geodesic problem with Vincenty's formula.
// ok is false when the iteration fails to converge.
func Vincenty(lat1, lon1, lat2, lon2 float64) (meters float64, ok bool) {
	if lat1 == lat2 && lon1 == lon2 {
		return 0, true
	}

	l := toRad(lon2 - lon1)
	u1 := math.Atan((1 - wgs84F) * math.Tan(toRad(lat1)))
	u2 := math.Atan((1 - wgs84F) * math.Tan(toRad(lat2)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	var (
		sinSigma, cosSigma, sigma float64
		cos2Alpha, cos2SigmaM     float64
		converged                 bool
	)

	lambda := l
	for i := 0; i < vincentyMaxIter; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		x := cosU2 * sinLambda
		y := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt(x*x + y*y)
		if sinSigma == 0 {
			return 0, true
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		cos2SigmaM = 0 // equatorial line
		if cos2Alpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}

		c := wgs84F / 16 * cos2Alpha * (4 + wgs84F*(4-3*cos2Alpha))
		prev := lambda
		lambda = l + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda) > math.Pi {
			return 0, false
		}
		if math.Abs(lambda-prev) < vincentyTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return 0, false
	}

	uSq := cos2Alpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
	a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	b := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := b * sinSigma * (cos2SigmaM + b/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		b/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return wgs84B * a * (sigma - deltaSigma), true
}
