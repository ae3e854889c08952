package manifest

import (
	"strings"
	"unicode"

	"github.com/chazu/totem/om"
)

// DefaultNamespace derives a display namespace from a project name by
// splitting on separators and capitalizing: "virt-models" -> "VirtModels".
func DefaultNamespace(project string) string {
	words := strings.FieldsFunc(project, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})

	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(strings.ToLower(string(runes[1:])))
	}
	return b.String()
}

// Namespacer qualifies registered type names with a project namespace
// for display surfaces. It implements om.NameResolver.
type Namespacer struct {
	Namespace string
}

// DisplayName returns the namespaced form of a type name.
func (n Namespacer) DisplayName(typeName string) string {
	if n.Namespace == "" {
		return typeName
	}
	return n.Namespace + "::" + typeName
}

var _ om.NameResolver = Namespacer{}

// reservedSelectors are declared on every root table by the runtime; a
// manifest type must not redeclare them as its own virtual ops.
var reservedSelectors = map[string]bool{
	om.TypeNameSelector: true,
	om.UnparentSelector: true,
}

// IsReservedSelector reports whether a virtual-op name collides with a
// builtin selector.
func IsReservedSelector(name string) bool {
	return reservedSelectors[name]
}
