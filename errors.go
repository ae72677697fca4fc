package convoflow

import "errors"

// Workflow construction and validation errors. All failures are
// deterministic structural errors recorded at the offending call or raised
// during Validate/Serialize; nothing is retried or swallowed internally.
var (
	// ErrDuplicateName indicates a step or context name already exists in
	// its scope.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrConflictingMode indicates flat-text and structured-section
	// construction modes were mixed on the same field.
	ErrConflictingMode = errors.New("conflicting construction mode")

	// ErrEmptyContent indicates an entity has no renderable content or no
	// children.
	ErrEmptyContent = errors.New("empty content")

	// ErrDanglingReference indicates a transition target names a step or
	// context that does not exist.
	ErrDanglingReference = errors.New("dangling reference")
)
