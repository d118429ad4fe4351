// Package order models a customer's gas cylinder order and its lifecycle.
//
// The package includes:
//   - Order: the aggregate root holding the basket snapshot, customer contact,
//     destination and the driver linkage
//   - Status: the state machine Pending -> InProgress -> Delivered, with
//     Declined reachable from Pending (cancel) and InProgress (failure)
//   - Item, Customer, Destination, DriverRef: constructor-guarded value objects
//   - Filter: the selection used by listings and live subscriptions
//
// Driver availability is not an Order concern: whether a driver may take an
// order depends on every other order and is enforced by the store.
package order
