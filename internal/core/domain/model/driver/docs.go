// Package driver models the delivery drivers known to the dispatch core.
//
// A Driver's identifier is the user id issued by the identity provider when
// the driver was registered. The aggregate stores the profile and the last
// reported position only; availability is derived from order state and is
// deliberately absent from this package.
package driver
