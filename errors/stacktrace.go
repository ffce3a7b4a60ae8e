package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// stackTrace returns the first found stack trace frame carried by given
// error or any wrapped error. It returns nil if no stack trace is found.
func stackTrace(err error) errors.StackTrace {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}

	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}

// Format implements fmt.Formatter. %+v prints the error message followed by
// the stack trace of the most inner wrap, trimmed of the frames that belong
// to this package.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, e.Error())
			for _, f := range trimInternal(stackTrace(e)) {
				fmt.Fprintf(s, "\n%+v", f)
			}
			return
		}
		if st := trimInternal(stackTrace(e)); len(st) > 0 {
			fmt.Fprintf(s, "%s [%v]", e.Error(), st[0])
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// trimInternal removes all frames of this package from the head of the
// stack, so that the first frame is the one that created the error. Runtime
// frames at the tail are removed as well.
func trimInternal(st errors.StackTrace) errors.StackTrace {
	for len(st) > 0 && isInternalFrame(st[0]) {
		st = st[1:]
	}
	for len(st) > 0 && strings.HasPrefix(fmt.Sprintf("%+s", st[len(st)-1]), "runtime.") {
		st = st[:len(st)-1]
	}
	return st
}

func isInternalFrame(f errors.Frame) bool {
	name := fmt.Sprintf("%+s", f)
	if strings.Contains(name, "_test.go") {
		return false
	}
	return strings.Contains(name, "/ledger/errors.")
}
