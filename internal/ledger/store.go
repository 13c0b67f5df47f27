package ledger

import "errors"

// ErrSessionSuperseded is returned by AppendLines when the given
// session token no longer matches the store's current session. Results
// from uploads that were in flight when the user reset the ledger land
// here and are discarded instead of reappearing as stale rows.
var ErrSessionSuperseded = errors.New("ledger session superseded")

// Store is an ordered collection of receipt lines owned by a single
// session. All operations are synchronous; none can leave the store in
// a state violating the line invariants.
type Store interface {
	// Session returns the current session token.
	Session() (string, error)

	// NextBatch issues the next batch token for line ID assignment.
	// Tokens never repeat for the lifetime of the store, so IDs minted
	// after a process restart cannot collide with stored rows.
	NextBatch() (string, error)

	// AppendLines appends lines at the end, preserving their order.
	// It returns ErrSessionSuperseded if session is stale and rejects
	// line IDs already present in the ledger.
	AppendLines(session string, lines []ReceiptLine) error

	// GetLine retrieves a line by ID
	GetLine(id string) (*ReceiptLine, error)

	// ListLines returns all lines in insertion order
	ListLines() ([]ReceiptLine, error)

	// UpdateLine applies an edit through the recomputation engine and
	// commits the result. The returned bool reports whether the ID was
	// present; an absent ID is a no-op.
	UpdateLine(id string, e Edit) (bool, error)

	// DeleteLine removes exactly one line if present, else does nothing
	DeleteLine(id string) error

	// Reset clears all lines and starts a new session. It returns the
	// new session token.
	Reset() (string, error)

	// Close closes the underlying database
	Close() error
}
