// Package harness runs physics checks against the output of a PIConGPU
// simulation.
//
// A check is described by a suite file:
//
//	name: eskhi
//	title: "KHI Growthrate (2D ESKHI)"
//	acceptance: 0.2
//	params: [gamma, BASE_DENSITY_SI, DELTA_T_SI]
//	data: [Bx]
//	step_file: fields_energy.dat
//	theory:
//	  model: eskhi
//	simulation:
//	  model: growth_rate
//	  field: Bx
//	  relativistic: true
//
// Run reads the listed parameters, computes the theoretical value and the
// simulated series with the selected models, and compares them with
// package deviation. The check passes when the largest simulated value
// deviates from the theory by at most acceptance*100 percent.
//
// # Models
//
// Theory:
//   - eskhi: 1/(sqrt(8) gamma)
//   - mi: v/(c sqrt(gamma)) with v derived from gamma
//   - parameter: the scalar named by theory.parameter
//
// Simulation:
//   - growth_rate: growth rates of field over time in units of 1/omega_pe
//   - series: the series named by field, unchanged
//
// Results are written to testresult.log by WriteResultLog. Failures to
// run a check are written to error.log by WriteErrorLog.
package harness
