// Package services contains domain services: stateless business logic that
// spans more than one aggregate.
//
// DriverSelector decides which driver of a tenant should deliver a READY order.
package services
