// Package reconcile merges the per-sector rotation measurements of a star
// into one final period.
//
// [Config.Detect] decides which sectors carry a reliable detection (high
// peak-to-median power and a narrow peak). [Config.Reconcile] then compares
// the detected periods with their median: a sector agrees with the consensus
// when its period ratio to the median is compatible with 1/2, 1 or 2 within
// two combined standard deviations. A star is automatically validated when at
// least two thirds of its detected sectors agree.
//
// Stars with a single detected sector take that sector's values, and stars
// without any detection fall back to the median over all analysed sectors.
// Both cases leave the validation state [AutoValUnknown].
package reconcile
