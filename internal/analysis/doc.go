// Package analysis characterizes simulated trajectories after the fact:
// power spectra for cyclic trait dynamics and Lyapunov exponents for
// detecting chaotic regimes such as the four-trait rock-paper-scissors
// replicator.
package analysis
