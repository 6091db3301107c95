// Package imfxml reads IMF inventory documents into a generic node tree and
// provides the XSD value helpers the document models are built from.
//
// The node tree is deliberately schema-agnostic: element names are matched on
// their local part with namespaces stripped, because Asset Maps and Packing
// Lists in the wild carry several namespace vintages (429-9/2007/AM,
// 2067-2/2016/PKL, and the older 429-8 forms) for the same structures. Model
// packages (assetmap, packinglist) own the field-level interpretation; this
// package only answers "what nodes are here and what do they say".
//
// Identifier helpers normalize urn:uuid values so that index keys compare
// equal regardless of hex casing in the source documents.
package imfxml
