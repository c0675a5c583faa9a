package app

// Operation tracks the CLI command being run. It lives in memory with ID 0
// until the command first changes the library, at which point it is written
// to the operation log and gets its ID. That ID versions the next snapshot.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Status     string // "success" or "error"
}

// NewOperation creates an in-memory operation that has not changed anything yet.
func NewOperation(name, parameters string) *Operation {
	return &Operation{
		Name:       name,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true once the operation has been written to the log.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Record marks the operation failed when err is non-nil and returns err.
func (op *Operation) Record(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}
