// Package plans provides the subscription plan catalog: which plans exist and
// how many seats each one grants.
//
// The catalog is immutable once built. It can be constructed in code, decoded
// from YAML or taken from the embedded default:
//
//	catalog, err := plans.LoadFile("plans.yaml")
//	seats, err := catalog.Seats("family")
//
// A plan's seat capacity counts the owner, so a capacity of 1 grants no
// shareable seats.
package plans
