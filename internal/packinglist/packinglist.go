// Package packinglist models SMPTE 429-8 Packing List documents and builds
// the expected-digest index the ingest engine verifies reconstructions
// against.
package packinglist

import (
	"fmt"
	"strings"
	"time"

	"ingot/internal/imfxml"
	"ingot/internal/ingesterr"
)

// PackingList is one parsed PKL document.
type PackingList struct {
	ID         string
	Annotation imfxml.UserText
	IssueDate  time.Time
	Issuer     string
	Creator    string
	GroupID    string
	IconID     string
	Assets     []Asset

	// Path is the document location on disk, recorded for diagnostics.
	Path string
}

// Asset is one packed asset with its expected digest and declared size.
type Asset struct {
	ID               string
	Digest           string // base64-encoded, as declared
	Algorithm        string // normalized lowercase, e.g. "sha1"
	Size             int64
	Type             string // MIME type
	OriginalFileName string
	Annotation       imfxml.UserText
}

// TotalSize sums the declared sizes of every packed asset.
func (p *PackingList) TotalSize() int64 {
	var total int64
	for _, asset := range p.Assets {
		total += asset.Size
	}
	return total
}

// Asset returns the packed asset with the given identifier, or false.
func (p *PackingList) Asset(id string) (Asset, bool) {
	for _, asset := range p.Assets {
		if asset.ID == id {
			return asset, true
		}
	}
	return Asset{}, false
}

// Parse interprets a parsed document node tree as a Packing List.
func Parse(root *imfxml.Node) (*PackingList, error) {
	if root == nil || root.Name != "PackingList" {
		name := ""
		if root != nil {
			name = root.Name
		}
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse",
			fmt.Sprintf("document element is %q, want PackingList", name), nil)
	}

	id, err := imfxml.AssetIDOf(root)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse", "list identifier", err)
	}
	issueDate, err := imfxml.DateTimeOf(root, "IssueDate")
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse", "issue date", err)
	}

	assetList := root.Find("AssetList")
	if assetList == nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse", "missing AssetList", nil)
	}

	result := &PackingList{
		ID:         id,
		Annotation: imfxml.UserTextOf(root, "AnnotationText"),
		IssueDate:  issueDate,
		Issuer:     imfxml.StringOf(root, "Issuer", ""),
		Creator:    imfxml.StringOf(root, "Creator", ""),
		GroupID:    imfxml.StringOf(root, "GroupId", ""),
		IconID:     imfxml.StringOf(root, "IconId", ""),
	}
	for _, node := range assetList.FindAll("Asset") {
		asset, err := parseAsset(node)
		if err != nil {
			return nil, err
		}
		result.Assets = append(result.Assets, asset)
	}
	return result, nil
}

// ParseFile parses the Packing List document at path.
func ParseFile(path string) (*PackingList, error) {
	root, err := imfxml.ParseFile(path)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "read", path, err)
	}
	parsed, err := Parse(root)
	if err != nil {
		return nil, err
	}
	parsed.Path = path
	return parsed, nil
}

func parseAsset(node *imfxml.Node) (Asset, error) {
	id, err := imfxml.AssetIDOf(node)
	if err != nil {
		return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse", "asset identifier", err)
	}

	digest := imfxml.StringOf(node, "Hash", "")
	if digest == "" {
		return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse",
			fmt.Sprintf("asset %s has no Hash", id), nil)
	}
	sizeNode := node.Find("Size")
	if sizeNode == nil {
		return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse",
			fmt.Sprintf("asset %s has no Size", id), nil)
	}
	size := imfxml.IntOf(node, "Size", -1)
	if size < 0 {
		return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "packinglist", "parse",
			fmt.Sprintf("asset %s declares invalid size %q", id, sizeNode.Value()), nil)
	}

	return Asset{
		ID:               id,
		Digest:           digest,
		Algorithm:        hashAlgorithm(node),
		Size:             size,
		Type:             imfxml.StringOf(node, "Type", ""),
		OriginalFileName: imfxml.StringOf(node, "OriginalFileName", ""),
		Annotation:       imfxml.UserTextOf(node, "AnnotationText"),
	}, nil
}

// hashAlgorithm extracts the digest algorithm from the HashAlgorithm
// element's Algorithm URI, taking the fragment after '#'
// (e.g. "http://www.w3.org/2000/09/xmldsig#sha1" -> "sha1"). 429-8 fixes the
// algorithm to SHA-1, so an absent element means sha1.
func hashAlgorithm(node *imfxml.Node) string {
	algoNode := node.Find("HashAlgorithm")
	if algoNode == nil {
		return "sha1"
	}
	uri := algoNode.Attr("Algorithm")
	if uri == "" {
		uri = algoNode.Value()
	}
	if idx := strings.LastIndex(uri, "#"); idx >= 0 {
		uri = uri[idx+1:]
	}
	algo := strings.ToLower(strings.TrimSpace(uri))
	if algo == "" {
		return "sha1"
	}
	return algo
}
