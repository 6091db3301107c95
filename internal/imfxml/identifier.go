package imfxml

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParseAssetID validates and normalizes a urn:uuid asset identifier. The
// returned form is always "urn:uuid:" plus the lowercase canonical UUID, so
// identifiers from different documents compare equal as map keys.
func ParseAssetID(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("empty asset identifier")
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("asset identifier %q is not an RFC 4122 UUID: %w", trimmed, err)
	}
	return "urn:uuid:" + id.String(), nil
}

// AssetIDOf reads and normalizes the Id child element of an Asset node.
func AssetIDOf(parent *Node) (string, error) {
	node := parent.Find("Id")
	if node == nil {
		return "", fmt.Errorf("missing Id element")
	}
	return ParseAssetID(node.Value())
}
