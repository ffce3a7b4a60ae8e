package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackTrace(t *testing.T) {
	cases := map[string]struct {
		err       error
		wantError string
	}{
		"New gives us a stacktrace": {
			err:       Wrap(ErrDuplicate, "name"),
			wantError: "name: duplicate",
		},
		"Wrapping stderr gives us a stacktrace": {
			err:       Wrap(fmt.Errorf("foo"), "standard"),
			wantError: "standard: foo",
		},
		"Wrapping pkg/errors gives us clean stacktrace": {
			err:       Wrap(errors.New("bar"), "pkg"),
			wantError: "pkg: bar",
		},
		"Newf gives us a stacktrace": {
			err:       ErrInput.Newf("do the %s", "do"),
			wantError: "do the do: invalid input",
		},
	}

	const thisTestSrc = "errors/stacktrace_test.go"

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.wantError, tc.err.Error())
			assert.NotNil(t, stackTrace(tc.err))

			fullStack := fmt.Sprintf("%+v", tc.err)
			assert.True(t, strings.HasPrefix(fullStack, tc.wantError), fullStack)
			assert.Contains(t, fullStack, thisTestSrc)
			assert.NotContains(t, fullStack, "ledger/errors.Wrap\n")
			assert.NotContains(t, fullStack, "runtime.goexit")

			short := fmt.Sprintf("%v", tc.err)
			assert.Contains(t, short, "stacktrace_test.go:")
		})
	}
}
