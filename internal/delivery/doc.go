// Package delivery locates and opens IMF/DCP deliveries on a filesystem.
//
// Discovery follows the Basic Map Profile: a root directly containing
// ASSETMAP.xml is the sole delivery unit; otherwise each immediate child
// directory (name at most 100 characters) holding ASSETMAP.xml is one unit.
// Name matching is exact and case-sensitive.
//
// Open parses every unit's Asset Map, assigns volume ordinals (VOLINDEX.xml
// when present, discovery order otherwise), reads the Packing Lists the maps
// flag, and builds the two read-only indices the ingest engine joins on.
// Errors here are construction-tier: the Delivery is not trustworthy enough
// to start per-asset work.
package delivery
