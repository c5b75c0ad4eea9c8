// Package proforma models the pro forma of a for-sale residential
// development: the unit mix and other income that make the revenue, the land,
// hard and soft costs, the construction loan and the equity that fund them.
//
// A Proforma holds the inputs only. Derive computes every metric from them
// (revenues, costs, profit, margins, per unit figures) and Reconcile checks
// that the committed sources cover the uses exactly. Nothing derived is ever
// stored.
//
// Pro formas are versioned. A Service keeps the history of one pro forma:
// locked versions are immutable and numbered "vX.Y", and at most one draft is
// open for edits at any time. Locking the draft opens the next one, with a
// minor or a major bump.
//
// A Registry holds the services of several pro formas, and the store package
// persists them.
package proforma
