// Package kernel holds the shared value objects of the order domain:
//   - UUID: identifiers for orders, events and connections
//   - GeoPoint: a validated latitude/longitude pair with great-circle distance
//   - Money: a two-decimal amount used for prices, fees and totals
//
// All values are immutable and safe for concurrent use. Zero values are
// invalid and fail Validate; use the constructors.
package kernel
