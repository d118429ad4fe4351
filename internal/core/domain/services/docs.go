// Package services provides domain logic that spans more than one aggregate.
//
// The package includes:
//   - DriverRanker: orders candidate drivers by straight-line distance to an
//     order's delivery pin
package services
