// Package assert holds the assertions shared by the ledger tests. They
// understand the coded errors of the errors package, including the codes
// carried by ABCI responses.
package assert

import (
	"reflect"
	"testing"

	"github.com/iov-one/ledger/errors"
)

// Tester is the part of testing.TB the assertions need.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails the test if given value is not nil. A typed nil pointer is nil.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack of an error.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Equal fails the test if two values are not deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal \nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics fails the test unless fn panics.
func Panics(t Tester, fn func()) {
	t.Helper()
	if _, ok := catch(fn); !ok {
		t.Fatal("panic expected")
	}
}

// PanicsWith fails the test unless fn panics with an error of given kind.
// Contract violations in the ledger panic that way.
func PanicsWith(t Tester, want *errors.Error, fn func()) {
	t.Helper()
	p, ok := catch(fn)
	if !ok {
		t.Fatalf("panic with %q expected", want)
	}
	err, isErr := p.(error)
	if !isErr {
		t.Fatalf("panic with %q expected, got %T %v", want, p, p)
	}
	if !want.Is(err) {
		t.Fatalf("panic with %q expected, got %+v", want, err)
	}
}

func catch(fn func()) (p interface{}, panicked bool) {
	defer func() {
		if p = recover(); p != nil {
			panicked = true
		}
	}()
	fn()
	return nil, false
}

// FieldError ensures that err contains an error of the given kind for
// fieldName. A nil want ensures there is no error for that field.
func FieldError(t testing.TB, err error, fieldName string, want *errors.Error) {
	t.Helper()

	errs := errors.FieldErrors(err, fieldName)

	if want == nil {
		if len(errs) != 0 {
			t.Fatalf("expected no %q error, got %q", fieldName, errs)
		}
		return
	}

	for _, e := range errs {
		if want.Is(e) {
			return
		}
	}
	t.Fatalf("no %q error matching %q found in %v", fieldName, want, err)
}

// IsErr fails the test unless got is of the kind want. An error that only
// carries a code, like a rejected ABCI response, matches the kind
// registered with that code.
func IsErr(t testing.TB, want, got error) {
	t.Helper()

	if want == got {
		return
	}
	kind, ok := want.(*errors.Error)
	if !ok {
		t.Fatalf("want %q, got %+v", want, got)
		return
	}
	if kind.Is(got) {
		return
	}
	if c, ok := got.(coder); ok && kind != nil && errors.ForCode(c.ABCICode()) == kind {
		return
	}
	t.Fatalf("want %q (code %d), got %+v", want, codeOf(want), got)
}

type coder interface {
	ABCICode() uint32
}

func codeOf(err error) uint32 {
	if c, ok := err.(coder); ok && !isNil(err) {
		return c.ABCICode()
	}
	return 0
}
