// Package rotation turns a light curve into a rotation-period measurement.
//
// A sector is analysed in three steps:
//
//   - the generalized Lomb-Scargle periodogram is evaluated on the default
//     frequency grid (see [periodogram.GLS]);
//   - [SelectorConfig.Select] picks a period from the periodogram peaks,
//     resolving the classic half-period alias and spurious long-period peaks,
//     and records how the choice was made in an [AliasFlag];
//   - [UncertaintyConfig.Estimate] fits a Gaussian to the selected peak and
//     converts its width into a period uncertainty.
//
// [Builder] runs these steps for every sector of a star and returns one
// [SectorResult] per input sector. Failures are captured per sector and never
// abort the remaining sectors.
package rotation
