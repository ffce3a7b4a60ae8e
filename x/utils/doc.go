/*
Package utils contains the decorators every ledger application stack is built
from: panic recovery, logging, transactional savepoints and tagging of
delivered operations.
*/
package utils
