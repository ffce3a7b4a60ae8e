package errors

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Codes 2 to 99 are general rejections shared by all packages. Extensions
// register their own codes from 1000 up, x/wallet uses 1100 to 1199.
var (
	// ErrUnauthorized is returned when an operation is not signed by a key
	// allowed to submit it.
	ErrUnauthorized = Register(2, "unauthorized")

	// ErrNotFound is returned when an operation refers to data that does
	// not exist.
	ErrNotFound = Register(3, "not found")

	// ErrMsg is returned for a message that is malformed or cannot be
	// routed.
	ErrMsg = Register(4, "invalid message")

	// ErrModel is returned for an entity that is not valid to be stored or
	// cannot be decoded.
	ErrModel = Register(5, "invalid model")

	// ErrDuplicate is returned when an entity with the same key exists.
	ErrDuplicate = Register(6, "duplicate")

	// ErrHuman is returned when a contract between two parts of the code
	// is broken. It is never the fault of the submitter.
	ErrHuman = Register(7, "coding error")

	// ErrEmpty is returned for a required value that is missing.
	ErrEmpty = Register(9, "value is empty")

	// ErrState is returned when an entity cannot go through the requested
	// transition, or a proof does not match the state.
	ErrState = Register(10, "invalid state")

	// ErrType is returned when a value is not of the expected type.
	ErrType = Register(11, "invalid type")

	// ErrAmount is returned for an amount that cannot be moved.
	ErrAmount = Register(13, "invalid amount")

	// ErrInput is returned for any other malformed input.
	ErrInput = Register(14, "invalid input")

	// ErrOverflow is returned when a result does not fit its type.
	ErrOverflow = Register(16, "an operation cannot be completed due to value overflow")

	// ErrDatabase is returned when the storage cannot serve a request. It
	// is never caused by user input.
	ErrDatabase = Register(17, "database")

	// ErrIteratorDone is returned by an iterator after the last item.
	ErrIteratorDone = Register(18, "iterator done")

	// ErrReplay is returned for an operation that was delivered before.
	// Identical operation bytes are never applied twice.
	ErrReplay = Register(19, "operation already applied")

	// ErrPanic is set on a recovered panic. Its message may reveal
	// internals and is not returned to clients.
	ErrPanic = Register(111222, "panic")
)

// registry holds every registered error by code. Code 1 stands for all
// errors without a code and cannot be registered.
var registry = map[uint32]*Error{
	internalABCICode: {code: internalABCICode, desc: internalABCILog},
}

// Register declares a new kind of error. A code can be registered only
// once, a second registration panics. Call it from package level variable
// declarations only.
func Register(code uint32, description string) *Error {
	if prev, ok := registry[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, prev.desc))
	}
	e := &Error{code: code, desc: description}
	registry[code] = e
	return e
}

// ForCode returns the error registered with given code, or nil. Clients use
// it to turn the code of a rejected operation back into an error kind.
func ForCode(code uint32) *Error {
	if code == internalABCICode {
		return nil
	}
	return registry[code]
}

// Codes returns all registered codes in increasing order.
func Codes() []uint32 {
	codes := make([]uint32, 0, len(registry))
	for c := range registry {
		if c != internalABCICode {
			codes = append(codes, c)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Error is a kind of error, identified by its code. Every error returned to
// a client must wrap one of them, see Wrap.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

func (e Error) ABCICode() uint32 {
	return e.code
}

// New returns an error of this kind with given description. It is the same
// as Wrap(e, description).
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is New with formatting.
func (e *Error) Newf(format string, args ...interface{}) error {
	return Wrap(e, fmt.Sprintf(format, args...))
}

// Is returns true if err is of this kind. Wrapped errors are unwrapped
// until a kind is found, a group of errors matches if any of its members
// does.
//
// The nil kind matches a nil error only, including a typed nil.
func (e *Error) Is(err error) bool {
	if e == nil {
		return isNilErr(err)
	}
	for err != nil {
		if err == e {
			return true
		}
		switch x := err.(type) {
		case unpacker:
			for _, member := range x.Unpack() {
				if e.Is(member) {
					return true
				}
			}
			return false
		case causer:
			err = x.Cause()
		default:
			return false
		}
	}
	return false
}

// Wrap adds a description to err. A nil err gives nil, so the result of a
// call can be wrapped without a check.
//
// The stack is recorded by the innermost Wrap only. An err without a
// registered kind in its chain is reported as an internal error.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &wrappedError{msg: description, parent: err}
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.parent.Error()
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Recover turns a panic into an ErrPanic assigned to err. It must be
// deferred.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if cause, ok := r.(error); ok {
		*err = Wrap(ErrPanic, cause.Error())
		return
	}
	*err = Wrapf(ErrPanic, "%v", r)
}

type causer interface {
	Cause() error
}

// unpacker is implemented by errors that group several errors together.
type unpacker interface {
	Unpack() []error
}
