package imfxml

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// UserText is the XSD UserText type: a human-readable string with an optional
// language tag that defaults to English.
type UserText struct {
	Text     string
	Language string
}

func (u UserText) String() string { return u.Text }

// UserTextOf reads an optional UserText child element. The language attribute
// is normalized through BCP 47 parsing; an unparseable tag is kept verbatim so
// a sloppy document does not lose its annotation.
func UserTextOf(parent *Node, name string) UserText {
	node := parent.Find(name)
	if node == nil {
		return UserText{Language: "en"}
	}
	lang := strings.TrimSpace(node.Attr("language"))
	if lang == "" {
		lang = "en"
	} else if tag, err := language.Parse(lang); err == nil {
		lang = tag.String()
	}
	return UserText{Text: node.Value(), Language: lang}
}

// StringOf reads an optional string child element, returning def when absent.
func StringOf(parent *Node, name, def string) string {
	node := parent.Find(name)
	if node == nil {
		return def
	}
	return node.Value()
}

// IntOf reads an optional xs:integer child element, returning def when the
// element is absent or its text is not numeric.
func IntOf(parent *Node, name string, def int64) int64 {
	node := parent.Find(name)
	if node == nil {
		return def
	}
	value, err := strconv.ParseInt(node.Value(), 10, 64)
	if err != nil {
		return def
	}
	return value
}

// BoolOf reads an optional xs:boolean child element. Both canonical forms
// ("true"/"false") and the numeric forms ("1"/"0") are accepted.
func BoolOf(parent *Node, name string, def bool) bool {
	node := parent.Find(name)
	if node == nil {
		return def
	}
	switch node.Value() {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return def
}

// xsd:dateTime layouts, most specific first. The trailing variants cover
// issuers that omit the timezone designator entirely.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseDateTime parses an xsd:dateTime string. Values without an explicit
// timezone are taken as UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid xsd:dateTime %q", value)
}

// DateTimeOf reads a required xsd:dateTime child element.
func DateTimeOf(parent *Node, name string) (time.Time, error) {
	node := parent.Find(name)
	if node == nil {
		return time.Time{}, fmt.Errorf("missing %s element", name)
	}
	return ParseDateTime(node.Value())
}
