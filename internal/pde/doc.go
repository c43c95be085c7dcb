// Package pde advances a spatially extended field by reaction-diffusion
// steps, parallelized over a fixed pool of long-lived worker goroutines.
//
// Each step is two fan-out/barrier phases: React updates every unit in
// place from local state, Diffuse couples each unit to its neighbors. The
// global barrier between the phases is what makes the neighbor reads of
// Diffuse observe post-reaction values even across partition boundaries.
//
//	sup := pde.NewSupervisor(field, 0, false)
//	sup.Reset(field.Units())
//	change, err := sup.Step()
//	sup.Unload()
package pde
