// Package chaos turns raw sensor readings into a reproducible health score by
// integrating a perturbed Lorenz system.
//
// The integration is a cross-system contract: the node firmware runs the
// same 250 explicit Euler steps at dt = 0.01 in IEEE-754 double precision and
// packs the outcome into one status byte. Both sides must evaluate every
// product before the addition that consumes it, in the same order, so the
// server can reproduce the device's byte exactly. The code keeps each product
// behind an explicit float64 conversion, which the language defines as
// a rounding point and therefore forbids fused multiply-add.
package chaos
