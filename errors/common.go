package errors

import "fmt"

func InvalidParamsErr(err error) error {
	return E(Invalid, "invalid params", err)
}

func InvalidBodyErr(err error) error {
	return E(Invalid, "invalid request body", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return ValidationFailedErr(ve.Err())
}

// ConflictErr returns a formated error for a reference that already exists
func ConflictErr(collection, reference string, err error) error {
	return E(Conflict, fmt.Sprintf("%s already holds reference %s", collection, reference), err)
}
