// Package ingest reconstructs and verifies wanted assets from an opened
// delivery.
//
// The engine joins the Packing List index against the Asset Map index per
// asset, streams chunks in declared order into a caller-supplied destination
// while hashing, and compares the result against the declared digest. Every
// wanted asset produces exactly one outcome; failures are captured per asset
// and never abort sibling assets. Assets are processed by a bounded worker
// pool, with chunk reads inside one asset strictly sequential because list
// order is the asset's byte order.
package ingest
