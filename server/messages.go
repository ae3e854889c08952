package server

// Wire messages for the totem services. These are plain structs rather
// than generated protobuf types; the codecs in codec.go marshal them by
// their json tags, so field names are stable across JSON and CBOR.

// TypeSummary describes one registered type.
type TypeSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Parent      string `json:"parent,omitempty"`
	Abstract    bool   `json:"abstract,omitempty"`
	Depth       int    `json:"depth"`
	NumSlots    int    `json:"num_slots"`
	NumOps      int    `json:"num_ops"`
}

// OpInfo describes one entry of a type's operation table.
type OpInfo struct {
	Selector string `json:"selector"`
	// Declarer is the type that declared the selector.
	Declarer string `json:"declarer"`
	// Installer is the type whose table build installed the current
	// implementation. Empty when the slot is unset.
	Installer string `json:"installer,omitempty"`
	Installed bool   `json:"installed"`
}

// HierarchyEntry is one node in a GetHierarchy response.
type HierarchyEntry struct {
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Abstract bool   `json:"abstract,omitempty"`
	NumOps   int    `json:"num_ops"`
}

// InstanceInfo describes one live instance.
type InstanceInfo struct {
	Handle uint64 `json:"handle"`
	Type   string `json:"type"`
	State  string `json:"state"`
}

type ListTypesRequest struct {
	// Pattern filters type names by substring. Empty matches all.
	Pattern string `json:"pattern,omitempty"`
}

type ListTypesResponse struct {
	Types []TypeSummary `json:"types"`
}

type GetTypeRequest struct {
	Name string `json:"name"`
}

type GetTypeResponse struct {
	Type TypeSummary `json:"type"`
	// SlotNames lists instance slot names, inherited first.
	SlotNames  []string `json:"slot_names,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	// Ops lists the full operation table in slot order. Requesting a
	// type builds its table if it was not built yet.
	Ops []OpInfo `json:"ops,omitempty"`
}

type GetHierarchyRequest struct {
	Name string `json:"name"`
}

type GetHierarchyResponse struct {
	// Ancestors runs root-first down to the parent of Self.
	Ancestors []HierarchyEntry `json:"ancestors,omitempty"`
	Self      HierarchyEntry   `json:"self"`
	// Children lists direct children sorted by name.
	Children []HierarchyEntry `json:"children,omitempty"`
}

type InstantiateRequest struct {
	Type string `json:"type"`
}

type InstantiateResponse struct {
	Handle uint64 `json:"handle"`
	Type   string `json:"type"`
	State  string `json:"state"`
}

type InvokeRequest struct {
	Handle   uint64 `json:"handle"`
	Selector string `json:"selector"`
	Args     []any  `json:"args,omitempty"`
}

type InvokeResponse struct {
	Result any `json:"result,omitempty"`
}

type FinalizeInstanceRequest struct {
	Handle uint64 `json:"handle"`
}

type FinalizeInstanceResponse struct {
	// Finalized reports whether the handle was still live. Finalizing a
	// released handle succeeds without doing anything.
	Finalized bool `json:"finalized"`
}

type ListInstancesRequest struct {
	// Type restricts the listing to instances of the named type or any
	// of its descendants. Empty matches all instances.
	Type string `json:"type,omitempty"`
}

type ListInstancesResponse struct {
	Instances []InstanceInfo `json:"instances"`
}
