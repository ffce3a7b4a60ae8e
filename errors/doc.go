/*
Package errors implements coded errors for the ledger.

Reuse the root errors from this package whenever possible and define custom
package errors only when a client must be able to distinguish the rejection.
x/wallet is a good package to take a look at, it registers its own codes.

To register a custom error use Register(code, description). To create an
instance use ErrXyz.New, ErrXyz.Newf or Wrap(ErrXyz, "..."). The code is
returned with the operation receipt and allows a client to act accordingly.

Create the error at the point of failure so that the attached stack trace is
meaningful. Once you have an error, fmt verbs give more context
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
