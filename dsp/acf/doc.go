// Package acf estimates rotation periods from the autocorrelation function of
// a light curve.
//
// The light curve is binned onto a uniform cadence (its median sampling
// interval), gaps are filled with the mean, and the autocorrelation is
// computed with a zero-padded FFT. After light boxcar smoothing the period is
// the lag of the first local maximum following the first zero crossing,
// refined by parabolic interpolation.
//
// The estimate is independent of the Lomb-Scargle periodogram and serves as a
// cross-check on its period choice.
package acf
