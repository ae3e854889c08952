package om

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("totem.om")

// ---------------------------------------------------------------------------
// Registry: the type registry
// ---------------------------------------------------------------------------

// Registry owns all registered types. Descriptors are immutable once
// registered and live for the lifetime of the registry; there is no
// unregistration. Registration normally happens during single-threaded
// startup, but the registry is nevertheless safe for concurrent use, since
// lookups and instantiations run long after and from anywhere.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Class

	selectors *SelectorTable
	resolver  NameResolver
	sink      DiagnosticSink
	maxSlots  int
}

// DefaultMaxInstanceSlots caps the per-instance slot count unless
// overridden with WithMaxInstanceSlots.
const DefaultMaxInstanceSlots = 1 << 16

// NameResolver supplies display names for registered type names, for use
// on inspection surfaces. The registry itself always keys by the
// registered name.
type NameResolver interface {
	DisplayName(typeName string) string
}

// DiagnosticSink receives faults that are reported rather than returned,
// which today means finalizer failures. The default sink writes to the
// package logger.
type DiagnosticSink interface {
	FinalizationError(typeName, hookOwner string, err error)
}

type logSink struct{}

func (logSink) FinalizationError(typeName, hookOwner string, err error) {
	log.Errorf("finalize %s: hook of %s failed: %v", typeName, hookOwner, err)
}

type identityResolver struct{}

func (identityResolver) DisplayName(typeName string) string { return typeName }

// Option configures a Registry.
type Option func(*Registry)

// WithMaxInstanceSlots sets the per-instance slot cap. Instantiating a type
// whose chain layout exceeds the cap fails with ErrAllocationFailed.
// n <= 0 removes the cap.
func WithMaxInstanceSlots(n int) Option {
	return func(r *Registry) { r.maxSlots = n }
}

// WithDiagnosticSink replaces the default log-backed sink.
func WithDiagnosticSink(sink DiagnosticSink) Option {
	return func(r *Registry) { r.sink = sink }
}

// WithNameResolver sets the display-name resolver used by inspection
// surfaces. The default resolver returns names unchanged.
func WithNameResolver(resolver NameResolver) Option {
	return func(r *Registry) { r.resolver = resolver }
}

// NewRegistry creates an empty type registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:     make(map[string]*Class),
		selectors: NewSelectorTable(),
		resolver:  identityResolver{},
		sink:      logSink{},
		maxSlots:  DefaultMaxInstanceSlots,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Built-in selectors get the two lowest IDs.
	r.selectors.Intern(TypeNameSelector)
	r.selectors.Intern(UnparentSelector)

	return r
}

// Register adds a type from its descriptor. The parent, if any, must be
// registered first; batches in arbitrary order go through RegisterAll.
// Fails with ErrDuplicateType, ErrUnknownParent, ErrCyclicParent or
// ErrBadDescriptor.
func (r *Registry) Register(info *TypeInfo) (*Class, error) {
	if info == nil || info.Name == "" {
		return nil, fmt.Errorf("descriptor has no name: %w", ErrBadDescriptor)
	}
	if info.Parent == info.Name {
		return nil, fmt.Errorf("type %s is its own parent: %w", info.Name, ErrCyclicParent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[info.Name]; ok {
		return nil, fmt.Errorf("type %s: %w", info.Name, ErrDuplicateType)
	}

	var parent *Class
	if info.Parent != "" {
		parent = r.types[info.Parent]
		if parent == nil {
			return nil, fmt.Errorf("type %s: parent %s: %w", info.Name, info.Parent, ErrUnknownParent)
		}
	}

	c, err := r.newClass(info.clone(), parent)
	if err != nil {
		return nil, err
	}

	r.types[c.name] = c
	log.Debugf("registered type %s (parent=%q, slots=%d, ops=%d)", c.name, info.Parent, c.numSlots, c.numOps)
	return c, nil
}

// newClass validates a descriptor against its resolved parent and builds
// the Class shell: layout offsets and selector IDs are fixed here, the
// operation table itself is built lazily. Caller holds r.mu.
func (r *Registry) newClass(info *TypeInfo, parent *Class) (*Class, error) {
	if err := checkDistinct(info.Name, "instance slot", info.InstVars); err != nil {
		return nil, err
	}
	if err := checkDistinct(info.Name, "virtual op", info.VirtualOps); err != nil {
		return nil, err
	}
	if err := checkDistinct(info.Name, "interface", info.Interfaces); err != nil {
		return nil, err
	}

	c := &Class{
		reg:    r,
		info:   info,
		name:   info.Name,
		parent: parent,
	}

	if parent != nil {
		c.depth = parent.depth + 1
		c.slotBase = parent.numSlots
		c.opBase = parent.numOps
	} else {
		// Root tables start with the fixed built-in region.
		c.opBase = builtinOps
	}
	c.numSlots = c.slotBase + len(info.InstVars)
	c.numOps = c.opBase + len(info.VirtualOps)

	c.ownOps = make(map[int]int, len(info.VirtualOps)+builtinOps)
	if parent == nil {
		c.ownOps[r.selectors.Intern(TypeNameSelector)] = typeNameSlot
		c.ownOps[r.selectors.Intern(UnparentSelector)] = unparentSlot
	}
	for i, op := range info.VirtualOps {
		id := r.selectors.Intern(op)
		if idx := c.opSlotIndex(id); idx >= 0 {
			return nil, fmt.Errorf("type %s: virtual op %q already declared in the chain: %w",
				info.Name, op, ErrBadDescriptor)
		}
		c.ownOps[id] = c.opBase + i
	}

	return c, nil
}

// checkDistinct rejects duplicate names within one descriptor list.
func checkDistinct(typeName, kind string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("type %s: empty %s name: %w", typeName, kind, ErrBadDescriptor)
		}
		if seen[n] {
			return fmt.Errorf("type %s: duplicate %s %q: %w", typeName, kind, n, ErrBadDescriptor)
		}
		seen[n] = true
	}
	return nil
}

// RegisterAll registers a batch of descriptors, ordering them so that
// parents are registered before children regardless of slice order. A
// parent name that is neither in the batch nor already registered fails
// with ErrUnknownParent; a parent cycle within the batch fails with
// ErrCyclicParent. Descriptors registered before the failing one stay
// registered.
func (r *Registry) RegisterAll(infos []*TypeInfo) error {
	ordered, err := r.sortByParent(infos)
	if err != nil {
		return err
	}
	for _, info := range ordered {
		if _, err := r.Register(info); err != nil {
			return err
		}
	}
	return nil
}

// sortByParent returns the batch in parents-first order, detecting cycles.
func (r *Registry) sortByParent(infos []*TypeInfo) ([]*TypeInfo, error) {
	byName := make(map[string]*TypeInfo, len(infos))
	for _, info := range infos {
		if info == nil || info.Name == "" {
			return nil, fmt.Errorf("descriptor has no name: %w", ErrBadDescriptor)
		}
		if byName[info.Name] != nil {
			return nil, fmt.Errorf("type %s appears twice in batch: %w", info.Name, ErrDuplicateType)
		}
		byName[info.Name] = info
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(infos))
	ordered := make([]*TypeInfo, 0, len(infos))

	var visit func(info *TypeInfo) error
	visit = func(info *TypeInfo) error {
		switch state[info.Name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("type %s: %w", info.Name, ErrCyclicParent)
		}
		state[info.Name] = visiting

		if info.Parent != "" {
			if parent, inBatch := byName[info.Parent]; inBatch {
				if err := visit(parent); err != nil {
					return err
				}
			} else if !r.Has(info.Parent) {
				return fmt.Errorf("type %s: parent %s: %w", info.Name, info.Parent, ErrUnknownParent)
			}
		}

		state[info.Name] = done
		ordered = append(ordered, info)
		return nil
	}

	for _, info := range infos {
		if err := visit(info); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Lookup finds a registered type by name, or nil.
func (r *Registry) Lookup(name string) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// Resolve finds a registered type by name, failing with ErrUnknownType.
func (r *Registry) Resolve(name string) (*Class, error) {
	if c := r.Lookup(name); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("type %q: %w", name, ErrUnknownType)
}

// Has returns true if a type with this name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// All returns all registered types in unspecified order.
func (r *Registry) All() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Class, 0, len(r.types))
	for _, c := range r.types {
		result = append(result, c)
	}
	return result
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Selectors returns the registry's selector table.
func (r *Registry) Selectors() *SelectorTable {
	return r.selectors
}

// DisplayName resolves a type name through the configured NameResolver.
func (r *Registry) DisplayName(typeName string) string {
	return r.resolver.DisplayName(typeName)
}

// Instantiate creates and initializes an instance of the named type.
func (r *Registry) Instantiate(name string) (*Instance, error) {
	c, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return c.NewInstance()
}
