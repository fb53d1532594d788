package types

// Store holds the facet data and subject records of many base objects.
// Callers attach to a store, take a per-subject Backend, and detach when done.
type Store[D any] interface {
	// Attach connects the store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases store resources. Idempotent. After Detach, operations
	// return ErrStoreDetached.
	Detach() error

	// Backend returns the facet backend scoped to one subject. The returned
	// backend also implements InsertIfAbsent, Updater, Remover and Lister.
	Backend(owner string) (Backend[D], error)

	// SaveSubject creates or replaces the base-object record of a subject.
	SaveSubject(id string, attrs D) error

	// LoadSubject returns the base-object record of a subject, or
	// ErrSubjectNotFound.
	LoadSubject(id string) (D, error)

	// Subjects lists the stored subject IDs in ascending order.
	Subjects() ([]string, error)
}
