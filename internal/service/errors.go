package service

import "errors"

var (
	// ErrInvalidCategory indicates the category cannot produce an internal id prefix.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrSequenceExhausted indicates the four-digit sequence of a prefix/year scope is used up.
	ErrSequenceExhausted = errors.New("internal id sequence exhausted")
	// ErrInternalIDConflict indicates concurrent registrations kept colliding on the same internal id.
	ErrInternalIDConflict = errors.New("internal id conflict")
	// ErrAnimalNotFound indicates the animal does not exist for the caller.
	ErrAnimalNotFound = errors.New("animal not found")
	// ErrInvalidParent indicates a dam or sire reference is unusable.
	ErrInvalidParent = errors.New("invalid parent")
	// ErrActivityNotFound indicates the activity does not exist for the caller.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrInvalidDate indicates a date that is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")
	// ErrEmptyDescription indicates a description that holds nothing once markup is stripped.
	ErrEmptyDescription = errors.New("description must contain text")
	// ErrAutomaticActivityReadOnly indicates a system-generated activity was targeted for edit or removal.
	ErrAutomaticActivityReadOnly = errors.New("automatic activities cannot be modified")
)
