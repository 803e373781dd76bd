package core

import (
	"strings"
)

// NamespaceMain is the article namespace.
const NamespaceMain = 0

// NamespaceUserTalk holds user talk pages, where warnings are left.
const NamespaceUserTalk = 3

var namespaceNames = map[int]string{
	-2:   "media",
	-1:   "special",
	0:    "main",
	1:    "talk",
	2:    "user",
	3:    "user talk",
	4:    "wikipedia",
	5:    "wikipedia talk",
	6:    "file",
	7:    "file talk",
	8:    "mediawiki",
	9:    "mediawiki talk",
	10:   "template",
	11:   "template talk",
	12:   "help",
	13:   "help talk",
	14:   "category",
	15:   "category talk",
	100:  "portal",
	101:  "portal talk",
	108:  "book",
	109:  "book talk",
	118:  "draft",
	119:  "draft talk",
	710:  "timedtext",
	711:  "timedtext talk",
	828:  "module",
	829:  "module talk",
	2300: "gadget",
	2301: "gadget talk",
	2302: "gadget definition",
	2303: "gadget definition talk",
}

var namespaceIDs = func() map[string]int {
	ids := make(map[string]int, len(namespaceNames))
	for id, name := range namespaceNames {
		ids[name] = id
	}
	return ids
}()

// NamespaceName returns the lower case name of a namespace id.
func NamespaceName(id int) (string, bool) {
	name, ok := namespaceNames[id]
	return name, ok
}

// NamespaceID resolves a namespace name in any case, with spaces or underscores.
func NamespaceID(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", " ")))
	id, ok := namespaceIDs[key]
	return id, ok
}

// DisplayNamespace returns the export form of a namespace: first letter upper
// case, the rest lower case ("user talk" becomes "User talk").
func DisplayNamespace(id int) (string, bool) {
	name, ok := namespaceNames[id]
	if !ok {
		return "", false
	}
	return strings.ToUpper(name[:1]) + name[1:], true
}

// CleanTitle removes a leading known namespace prefix from a page title and
// replaces spaces with underscores, matching the replica's page_title column.
func CleanTitle(title string) string {
	if i := strings.Index(title, ":"); i > 0 {
		if _, ok := NamespaceID(title[:i]); ok {
			title = title[i+1:]
		}
	}
	return strings.ReplaceAll(title, " ", "_")
}
