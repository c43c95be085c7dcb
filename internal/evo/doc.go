// Package evo provides core primitives for evolutionary dynamics simulation.
//
// The package defines the fundamental types shared by the stepping engine:
//
//   - [State]: trait-frequency vector on the simplex
//   - [Model]: anything the pacing scheduler can advance one step at a time
//   - [Field]: spatially extended state advanced by the reaction-diffusion
//     supervisor in partition-parallel phases
//   - [Dynamics]: deterministic drift of a well-mixed model (dy/dt = f(y, t))
//   - [Integrator]: numerical stepper for [Dynamics]
//
// # Thread Safety
//
// State values are NOT thread-safe. The reaction-diffusion supervisor in
// internal/pde guarantees that concurrent workers touch disjoint index
// ranges of a Field; everything else runs on a single driving goroutine.
package evo
