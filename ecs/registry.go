package ecs

import (
	"reflect"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// Serializer is implemented by component types that take part in world
// snapshots. The returned value must be encodable as JSON.
type Serializer interface {
	Serialize() (any, error)
}

// Deserializer is the inverse of Serializer. It is implemented on the pointer
// receiver and fills the component from the JSON produced by Serialize.
type Deserializer interface {
	Deserialize(data []byte) error
}

var (
	serializerType   = reflect.TypeFor[Serializer]()
	deserializerType = reflect.TypeFor[Deserializer]()
)

type serializability uint8

const (
	serializabilityUnset serializability = iota
	serializabilityAll
	serializabilityNone
)

// ComponentType is the handle returned by registration. It carries the
// type's bit in presence bitmasks and acts as a literal term in filter
// expressions.
type ComponentType struct {
	registry     *ComponentRegistry
	id           int
	bit          Bitmask
	name         string
	rtype        reflect.Type
	serializable bool
}

// ID returns the registration ordinal, starting at 0.
func (c *ComponentType) ID() int { return c.id }

// Bit returns the single-bit mask identifying this type.
func (c *ComponentType) Bit() Bitmask { return c.bit }

// Name returns the name used in filter text and snapshots.
func (c *ComponentType) Name() string { return c.name }

// Type returns the Go type of values of this component.
func (c *ComponentType) Type() reflect.Type { return c.rtype }

// Serializable reports whether the type implements Serializer and Deserializer.
func (c *ComponentType) Serializable() bool { return c.serializable }

// Registry returns the registry this type was registered with.
func (c *ComponentType) Registry() *ComponentRegistry { return c.registry }

func (c *ComponentType) String() string { return c.name }

func (c *ComponentType) expr() Expr { return literal(c) }

// ComponentRegistry assigns component types their bits. Each World is bound
// to one registry, and independent registries can coexist in one process.
type ComponentRegistry struct {
	seq             uint64
	types           *appendOnlyIndex[reflect.Type, *ComponentType]
	names           map[string][]*ComponentType
	serializability serializability
}

var registrySeq atomic.Uint64

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		seq:   registrySeq.Add(1),
		types: newAppendOnlyIndex[reflect.Type, *ComponentType](),
		names: make(map[string][]*ComponentType),
	}
}

type registerOptions struct {
	name string
}

// RegisterOption customizes a registration.
type RegisterOption func(*registerOptions)

// WithName overrides the component name. The default is the Go type name.
func WithName(name string) RegisterOption {
	return func(o *registerOptions) {
		o.name = name
	}
}

// RegisterComponent registers T with the given registry and returns its handle.
func RegisterComponent[T any](r *ComponentRegistry, opts ...RegisterOption) (*ComponentType, error) {
	return r.Register(reflect.TypeFor[T](), opts...)
}

// MustRegisterComponent is like RegisterComponent but panics on error.
func MustRegisterComponent[T any](r *ComponentRegistry, opts ...RegisterOption) *ComponentType {
	ct, err := RegisterComponent[T](r, opts...)
	if err != nil {
		panic(err)
	}
	return ct
}

// Register registers t and assigns it the next unused bit.
func (r *ComponentRegistry) Register(t reflect.Type, opts ...RegisterOption) (*ComponentType, error) {
	if t == nil {
		return nil, eris.New("cannot register a nil type")
	}
	if _, ok := r.types.lookup(t); ok {
		return nil, eris.Wrapf(ErrDuplicateRegistration, "component type %s", t)
	}

	o := registerOptions{name: defaultName(t)}
	for _, opt := range opts {
		opt(&o)
	}

	hasSerialize := implements(t, serializerType)
	hasDeserialize := implements(t, deserializerType)
	if hasSerialize != hasDeserialize {
		if hasSerialize {
			return nil, eris.Wrapf(ErrAsymmetricSerialization, "component type %s implements Serialize but not Deserialize", t)
		}
		return nil, eris.Wrapf(ErrAsymmetricSerialization, "component type %s implements Deserialize but not Serialize", t)
	}
	serializable := hasSerialize

	want := serializabilityNone
	if serializable {
		want = serializabilityAll
	}
	if r.serializability != serializabilityUnset && r.serializability != want {
		return nil, eris.Wrapf(ErrInconsistentSerializability,
			"component type %s (serializable=%t) in a registry where serializable=%t",
			t, serializable, r.serializability == serializabilityAll)
	}
	if serializable && len(r.names[o.name]) > 0 {
		return nil, eris.Wrapf(ErrDuplicateName, "component name %q", o.name)
	}

	ct, _ := r.types.add(t, func(ordinal int) *ComponentType {
		return &ComponentType{
			registry:     r,
			id:           ordinal,
			bit:          BitAt(ordinal),
			name:         o.name,
			rtype:        t,
			serializable: serializable,
		}
	})
	r.serializability = want
	r.names[o.name] = append(r.names[o.name], ct)
	return ct, nil
}

// TypeOf returns the registered type of a component value. The dynamic type of
// the value must match the registered type exactly.
func (r *ComponentRegistry) TypeOf(value any) (*ComponentType, error) {
	if value == nil {
		return nil, eris.Wrap(ErrComponentNotRegistered, "nil component value")
	}
	t := reflect.TypeOf(value)
	ct, ok := r.types.lookup(t)
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotRegistered, "component type %s", t)
	}
	return ct, nil
}

// TypeFor returns the registered handle for T.
func TypeFor[T any](r *ComponentRegistry) (*ComponentType, error) {
	t := reflect.TypeFor[T]()
	ct, ok := r.types.lookup(t)
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotRegistered, "component type %s", t)
	}
	return ct, nil
}

// Lookup resolves a component by name. Non-serializable registries allow
// duplicate names; looking those up is an error.
func (r *ComponentRegistry) Lookup(name string) (*ComponentType, error) {
	matches := r.names[name]
	switch len(matches) {
	case 0:
		return nil, eris.Wrapf(ErrComponentNotRegistered, "component name %q", name)
	case 1:
		return matches[0], nil
	default:
		return nil, eris.Wrapf(ErrAmbiguousComponentName, "%d component types are named %q", len(matches), name)
	}
}

// At returns the type registered with the given ordinal.
func (r *ComponentRegistry) At(id int) *ComponentType {
	return r.types.at(id)
}

// Len returns the number of registered types.
func (r *ComponentRegistry) Len() int {
	return r.types.len()
}

// Types returns all registered types in registration order.
func (r *ComponentRegistry) Types() []*ComponentType {
	out := make([]*ComponentType, r.types.len())
	for i := range out {
		out[i] = r.types.at(i)
	}
	return out
}

// Serializable reports whether at least one type is registered and all
// registered types are serializable.
func (r *ComponentRegistry) Serializable() bool {
	return r.serializability == serializabilityAll
}

// owns reports an error unless ct was registered with r.
func (r *ComponentRegistry) owns(ct *ComponentType) error {
	if ct == nil {
		return eris.Wrap(ErrComponentNotRegistered, "nil component type")
	}
	if ct.registry != r {
		return eris.Wrapf(ErrComponentNotRegistered, "component type %s belongs to another registry", ct.name)
	}
	return nil
}

// ownsAll checks every literal of e with owns.
func (r *ComponentRegistry) ownsAll(e Expr) error {
	if e.lit != nil {
		return r.owns(e.lit)
	}
	for _, t := range e.terms {
		if err := r.ownsAll(t); err != nil {
			return err
		}
	}
	return nil
}

func implements(t, iface reflect.Type) bool {
	if t.Implements(iface) {
		return true
	}
	return t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface)
}

func defaultName(t reflect.Type) string {
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
