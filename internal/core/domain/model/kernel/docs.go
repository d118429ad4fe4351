// Package kernel holds the value objects shared by the order and driver
// aggregates: UUID identifiers and WGS84 Location coordinates with haversine
// distance.
//
// All kernel values are immutable and their zero values are invalid; build
// them through the provided constructors.
package kernel
