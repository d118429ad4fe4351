// Package errs holds the error types shared by the domain model and the
// adapters that translate them into HTTP statuses and Kafka dead letters.
//
// Each type unwraps to a sentinel, so callers classify with errors.Is:
//   - ErrObjectNotFound for unknown orders, drivers and credentials
//   - ErrValueIsRequired, ErrValueIsInvalid and ErrValueIsOutOfRange for
//     rejected input, grouped by IsValidation
package errs
