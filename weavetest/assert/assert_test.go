package assert

import (
	"testing"

	"github.com/iov-one/ledger/errors"
)

func TestIsErr(t *testing.T) {
	cases := map[string]struct {
		ErrWant  error
		ErrGot   error
		Result   bool
		WantFail bool
	}{
		"same error": {
			ErrWant:  errors.ErrInput,
			ErrGot:   errors.ErrInput,
			WantFail: false,
		},
		"compared to nil": {
			ErrWant:  nil,
			ErrGot:   errors.ErrInput,
			WantFail: true,
		},
		"both nil": {
			ErrWant:  nil,
			ErrGot:   nil,
			WantFail: false,
		},
		"wrapped": {
			ErrWant:  errors.ErrInput,
			ErrGot:   errors.Wrap(errors.ErrInput, "test"),
			WantFail: false,
		},
		"different kind": {
			ErrWant:  errors.ErrInput,
			ErrGot:   errors.Wrap(errors.ErrAmount, "test"),
			WantFail: true,
		},
		"code of a response": {
			ErrWant:  errors.ErrReplay,
			ErrGot:   codeOnly(19),
			WantFail: false,
		},
		"code of another kind": {
			ErrWant:  errors.ErrReplay,
			ErrGot:   codeOnly(4),
			WantFail: true,
		},
		"unregistered code": {
			ErrWant:  errors.ErrReplay,
			ErrGot:   codeOnly(1),
			WantFail: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			mock := &tmock{TB: t}
			IsErr(mock, tc.ErrWant, tc.ErrGot)
			failed := mock.failcalls > 0
			if tc.WantFail != failed {
				t.Fatalf("unexpected failure state: %d failures", mock.failcalls)
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	cases := map[string]struct {
		Err      error
		Name     string
		WantErr  *errors.Error
		WantFail bool
	}{
		"single error of the field is found": {
			Err:      errors.Field("Quorum", errors.ErrInput, "must be positive"),
			Name:     "Quorum",
			WantErr:  errors.ErrInput,
			WantFail: false,
		},
		"nil ensures the field has no error": {
			Err:      errors.Field("Quorum", errors.ErrInput, "must be positive"),
			Name:     "PubKeys",
			WantErr:  nil,
			WantFail: false,
		},
		"nil fails when the field has an error": {
			Err:      errors.Field("Quorum", errors.ErrInput, "must be positive"),
			Name:     "Quorum",
			WantErr:  nil,
			WantFail: true,
		},
		"any error of the field may match": {
			Err: errors.Append(
				errors.Field("Name", errors.ErrEmpty, "first"),
				errors.Field("Name", errors.ErrInput, "second"),
			),
			Name:     "Name",
			WantErr:  errors.ErrInput,
			WantFail: false,
		},
		"error of another kind fails": {
			Err:      errors.Field("Name", errors.ErrEmpty, "required"),
			Name:     "Name",
			WantErr:  errors.ErrInput,
			WantFail: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			mock := &tmock{TB: t}
			FieldError(mock, tc.Err, tc.Name, tc.WantErr)
			failed := mock.failcalls > 0
			if tc.WantFail != failed {
				t.Fatalf("unexpected failure state: %d failures", mock.failcalls)
			}
		})
	}
}

// codeOnly is an error that carries a code and nothing else.
type codeOnly uint32

func (c codeOnly) Error() string    { return "rejected" }
func (c codeOnly) ABCICode() uint32 { return uint32(c) }

func TestPanicsWith(t *testing.T) {
	cases := map[string]struct {
		Fn       func()
		WantFail bool
	}{
		"panic of the kind": {
			Fn:       func() { panic(errors.Wrap(errors.ErrHuman, "broken")) },
			WantFail: false,
		},
		"panic of another kind": {
			Fn:       func() { panic(errors.ErrState) },
			WantFail: true,
		},
		"panic without an error": {
			Fn:       func() { panic("broken") },
			WantFail: true,
		},
		"no panic": {
			Fn:       func() {},
			WantFail: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			mock := &tmock{TB: t}
			PanicsWith(mock, errors.ErrHuman, tc.Fn)
			failed := mock.failcalls > 0
			if tc.WantFail != failed {
				t.Fatalf("unexpected failure state: %d failures", mock.failcalls)
			}
		})
	}
}

func TestNil(t *testing.T) {
	var typed *errors.Error
	var slice []byte
	for name, value := range map[string]interface{}{"nil": nil, "typed nil": typed, "nil slice": slice} {
		mock := &tmock{TB: t}
		Nil(mock, value)
		if mock.failcalls != 0 {
			t.Errorf("%s: want nil", name)
		}
	}

	mock := &tmock{TB: t}
	Nil(mock, 0)
	if mock.failcalls != 1 {
		t.Error("zero int is not nil")
	}
}

// tmock mocks testing.TB and only counts failure calls. It ignores all other
// input.
type tmock struct {
	testing.TB
	failcalls int
}

func (t *tmock) Error(args ...interface{}) {
	t.TB.Log(args...)
	t.failcalls++
}

func (t *tmock) Errorf(s string, args ...interface{}) {
	t.TB.Logf(s, args...)
	t.failcalls++
}

func (t *tmock) Fatal(args ...interface{}) {
	t.TB.Log(args...)
	t.failcalls++
}

func (t *tmock) Fatalf(s string, args ...interface{}) {
	t.TB.Logf(s, args...)
	t.failcalls++
}
