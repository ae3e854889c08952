package manifest

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSource is the CUE schema a manifest must satisfy before struct
// decoding. The definitions are closed, so a misspelled key fails with a
// "field not allowed" error naming the key instead of being dropped.
const schemaSource = `
#TypeDecl: {
	name:      string & !=""
	parent?:   string & !=""
	abstract?: bool
	"instance-vars"?: [...string & !=""]
	"virtual-ops"?: [...string & !=""]
	interfaces?: [...string & !=""]
	hooks?: string & !=""
}

#Manifest: {
	project: {
		name:       string & !=""
		namespace?: string
		version?:   string
	}
	type?: [...#TypeDecl]
}
`

// validate unifies a decoded manifest document with the schema.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return err
	}

	doc := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(ctx.Encode(raw))
	return doc.Validate(cue.Concrete(true))
}
