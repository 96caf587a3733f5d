// Package classify labels summarised stars as rotators with a random forest
// trained on a labelled catalogue.
//
// The forest is a plain CART ensemble: bootstrap samples, √features
// candidates per split, Gini impurity and leaf class fractions averaged into
// a rotation probability. Training is deterministic for a given seed
// regardless of how many trees are grown concurrently.
package classify
