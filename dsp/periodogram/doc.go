// Package periodogram computes generalized Lomb-Scargle power spectra of
// irregularly sampled time series.
//
// The estimator follows the Zechmeister & Kürster (2009) formulation: a
// floating-mean sinusoid is fitted at every trial frequency with per-sample
// error weights, and the power is the fractional reduction of the weighted
// variance. Power therefore lies in [0, 1].
//
// Frequencies are in cycles per time unit (cycles/day for light curves) and
// are evaluated on a fixed, uniformly spaced [Grid]. The grid is a tunable
// constant rather than something derived from the data, so spectra from
// different sectors of the same star are directly comparable.
package periodogram
