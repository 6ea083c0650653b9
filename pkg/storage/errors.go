package storage

type storageError string

const (
	ErrNotFound   = storageError("not found")
	ErrValidation = storageError("validation failed")
	ErrConflict   = storageError("conflicting status transition")
)

func (e storageError) Error() string {
	return string(e)
}
