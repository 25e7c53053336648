package targets

import "math"

// Separation computes the great-circle angle between two sky positions.
// Inputs and output are in degrees.
//
// The haversine form is used to keep precision at small angles.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	const degToRad = math.Pi / 180.0

	phi1 := dec1 * degToRad
	phi2 := dec2 * degToRad
	dPhi := (dec2 - dec1) * degToRad
	dLam := (ra2 - ra1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLam/2)*math.Sin(dLam/2)

	return 2 * math.Asin(math.Min(1, math.Sqrt(a))) / degToRad
}

// InCone tests whether (ra, dec) falls within radius degrees of the cone
// center.
func InCone(centerRA, centerDec, radius, ra, dec float64) bool {
	return Separation(centerRA, centerDec, ra, dec) <= radius
}
