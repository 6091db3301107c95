package imfxml

import (
	"strings"
	"testing"
	"time"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<AssetMap xmlns="http://www.smpte-ra.org/schemas/429-9/2007/AM">
  <Id>urn:uuid:37E7CA2C-27E0-44A8-AF9D-8E1AD3C3A0E4</Id>
  <AnnotationText language="en-us">Feature delivery</AnnotationText>
  <Creator>ingot test fixtures</Creator>
  <VolumeCount>1</VolumeCount>
  <IssueDate>2024-03-01T12:30:00Z</IssueDate>
  <Issuer>Example Facility</Issuer>
  <AssetList>
    <Asset>
      <Id>urn:uuid:a97a7218-1b5c-46fc-9b5a-1d8b0a9b2f9d</Id>
      <PackingList>true</PackingList>
      <ChunkList>
        <Chunk>
          <Path>PKL_feature.xml</Path>
          <Length>1024</Length>
        </Chunk>
      </ChunkList>
    </Asset>
  </AssetList>
</AssetMap>`

func TestParseBuildsNodeTree(t *testing.T) {
	root, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Name != "AssetMap" {
		t.Fatalf("root name = %q, want AssetMap", root.Name)
	}
	if got := root.Find("Creator").Value(); got != "ingot test fixtures" {
		t.Errorf("Creator = %q", got)
	}
	assets := root.Find("AssetList").FindAll("Asset")
	if len(assets) != 1 {
		t.Fatalf("asset count = %d, want 1", len(assets))
	}
	chunk := assets[0].Find("ChunkList").Find("Chunk")
	if got := chunk.Find("Path").Value(); got != "PKL_feature.xml" {
		t.Errorf("chunk path = %q", got)
	}
}

func TestParseRejectsTruncatedDocument(t *testing.T) {
	if _, err := Parse(strings.NewReader("<AssetMap><Id>abc</Id>")); err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestFindOnNilNode(t *testing.T) {
	var node *Node
	if node.Find("anything") != nil {
		t.Error("Find on nil node should return nil")
	}
	if node.Value() != "" {
		t.Error("Value on nil node should be empty")
	}
}

func TestUserTextOf(t *testing.T) {
	root, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	annotation := UserTextOf(root, "AnnotationText")
	if annotation.Text != "Feature delivery" {
		t.Errorf("text = %q", annotation.Text)
	}
	if annotation.Language != "en-US" {
		t.Errorf("language = %q, want en-US", annotation.Language)
	}

	missing := UserTextOf(root, "NoSuchElement")
	if missing.Text != "" || missing.Language != "en" {
		t.Errorf("missing UserText = %+v", missing)
	}
}

func TestOptionalValueHelpers(t *testing.T) {
	root, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := IntOf(root, "VolumeCount", 0); got != 1 {
		t.Errorf("VolumeCount = %d", got)
	}
	if got := IntOf(root, "Missing", 7); got != 7 {
		t.Errorf("missing int default = %d", got)
	}
	asset := root.Find("AssetList").Find("Asset")
	if !BoolOf(asset, "PackingList", false) {
		t.Error("PackingList flag should be true")
	}
	if BoolOf(asset, "Missing", false) {
		t.Error("missing bool should use default")
	}
}

func TestParseDateTime(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-03-01T12:30:00Z", want: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)},
		{in: "2024-03-01T12:30:00+02:00", want: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{in: "2024-03-01T12:30:00", want: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)},
		{in: "not-a-date", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseDateTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDateTime(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDateTime(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDateTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseAssetIDNormalizes(t *testing.T) {
	upper, err := ParseAssetID("urn:uuid:37E7CA2C-27E0-44A8-AF9D-8E1AD3C3A0E4")
	if err != nil {
		t.Fatalf("ParseAssetID: %v", err)
	}
	lower, err := ParseAssetID("urn:uuid:37e7ca2c-27e0-44a8-af9d-8e1ad3c3a0e4")
	if err != nil {
		t.Fatalf("ParseAssetID: %v", err)
	}
	if upper != lower {
		t.Errorf("case variants should normalize equal: %q vs %q", upper, lower)
	}
	if upper != "urn:uuid:37e7ca2c-27e0-44a8-af9d-8e1ad3c3a0e4" {
		t.Errorf("normalized form = %q", upper)
	}

	if _, err := ParseAssetID("urn:uuid:not-a-uuid"); err == nil {
		t.Error("expected error for malformed UUID")
	}
	if _, err := ParseAssetID(""); err == nil {
		t.Error("expected error for empty identifier")
	}
}
