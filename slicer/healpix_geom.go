package slicer

import "math"

// HEALPix RING-scheme geometry. Only the pieces needed to place slice-point
// centres are implemented: validity, pixel counts, resolution, pix2ang.

const maxNside = 1 << 29

// UNSEEN is the healpix sentinel for pixels without data.
const UNSEEN = -1.6375e30

func IsNsideOK(nside int) bool {
	return nside > 0 && nside <= maxNside && nside&(nside-1) == 0
}

func Nside2Npix(nside int) int {
	return 12 * nside * nside
}

// Nside2PixArea in steradians.
func Nside2PixArea(nside int) float64 {
	return 4 * math.Pi / float64(Nside2Npix(nside))
}

// Nside2Resol is the approximate pixel size in radians.
func Nside2Resol(nside int) float64 {
	return math.Sqrt(Nside2PixArea(nside))
}

func isqrt(v int) int {
	root := int(math.Sqrt(float64(v) + 0.5))
	for root*root > v {
		root--
	}
	for (root+1)*(root+1) <= v {
		root++
	}
	return root
}

// Pix2Ang returns colatitude theta and longitude phi (radians) of the centre
// of RING pixel pix.
func Pix2Ang(nside, pix int) (float64, float64) {
	npix := Nside2Npix(nside)
	ncap := 2 * nside * (nside - 1)
	fact2 := 4.0 / float64(npix)
	fact1 := float64(2*nside) * fact2

	var z, phi float64
	switch {
	case pix < ncap:
		// north polar cap
		iring := (1 + isqrt(1+2*pix)) >> 1
		iphi := (pix + 1) - 2*iring*(iring-1)
		z = 1.0 - float64(iring*iring)*fact2
		phi = (float64(iphi) - 0.5) * (math.Pi / 2) / float64(iring)
	case pix < npix-ncap:
		ip := pix - ncap
		tmp := ip / (4 * nside)
		iring := tmp + nside
		iphi := ip - tmp*4*nside + 1
		fodd := 0.5
		if (iring+nside)&1 == 1 {
			fodd = 1
		}
		z = float64(2*nside-iring) * fact1
		phi = (float64(iphi) - fodd) * math.Pi * 0.75 * fact1
	default:
		// south polar cap
		ip := npix - pix
		iring := (1 + isqrt(2*ip-1)) >> 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		z = -1.0 + float64(iring*iring)*fact2
		phi = (float64(iphi) - 0.5) * (math.Pi / 2) / float64(iring)
	}
	return math.Acos(z), phi
}

// Pix2RaDec converts a pixel to (ra, dec) in radians.
func Pix2RaDec(nside, pix int) (float64, float64) {
	theta, phi := Pix2Ang(nside, pix)
	return phi, math.Pi/2 - theta
}
