package ecs

import "github.com/rotisserie/eris"

// Entity and component lookup errors.
var (
	ErrEntityNotFound         = eris.New("entity not found")
	ErrComponentNotFound      = eris.New("component not found on entity")
	ErrDuplicateComponentType = eris.New("entity already has a component of this type")
	ErrComponentNotRegistered = eris.New("component type not registered")
	ErrAmbiguousComponentName = eris.New("component name is ambiguous")
)

// Registration errors. These indicate programmer errors at setup time.
var (
	ErrDuplicateRegistration       = eris.New("component type already registered")
	ErrAsymmetricSerialization     = eris.New("component type must implement both Serialize and Deserialize or neither")
	ErrInconsistentSerializability = eris.New("component serializability does not match the registry")
	ErrDuplicateName               = eris.New("serializable component name already registered")
)

// Snapshot errors.
var (
	ErrSerializationUnavailable = eris.New("registry is not serializable")
	ErrUnknownSerializedType    = eris.New("serialized component type is not registered")
)

// Filter language errors.
var ErrInvalidFilter = eris.New("invalid filter expression")
