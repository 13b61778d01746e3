package decompose

import "errors"

var (
	// ErrInvalidUserID indicates the caller-supplied user id is not numeric.
	ErrInvalidUserID = errors.New("user id must be numeric")

	// ErrUnsafeInput indicates the input matched a known prompt-injection
	// pattern or exceeded the input size limit. The request is rejected
	// before any model call.
	ErrUnsafeInput = errors.New("input failed prompt safety validation")

	// ErrContentRejected indicates the model declined to produce output.
	ErrContentRejected = errors.New(
		"the model declined to generate tasks for this input",
	)

	// ErrMalformedResponse indicates the model response could not be parsed
	// into a task list.
	ErrMalformedResponse = errors.New("unable to parse the model response")

	// ErrNothingToSave indicates a save was attempted on a result with no
	// tasks.
	ErrNothingToSave = errors.New("decomposition result contains no tasks")

	// ErrMissingProjectContext indicates a save was attempted without a
	// project id or project details.
	ErrMissingProjectContext = errors.New(
		"neither a project id nor project details were provided",
	)
)
