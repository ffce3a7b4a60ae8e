package orm

import (
	"github.com/iov-one/ledger/errors"
)

// dbErr marks a failure reported by the underlying store. Those are never
// caused by the user input and the host treats them as fatal.
func dbErr(err error, description string) error {
	if errors.ErrDatabase.Is(err) {
		return errors.Wrap(err, description)
	}
	return errors.Wrapf(errors.ErrDatabase, "%s: %s", description, err)
}
