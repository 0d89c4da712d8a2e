// Package analysis provides thermodynamic estimators for Monte Carlo series.
//
// Estimators expect samples taken at a single temperature:
//
//   - [SpecificHeat]: energy fluctuations per site
//   - [Susceptibility]: fluctuations of |m| scaled by the site count
//   - [BinderCumulant]: fourth-order cumulant of m, 2/3 when ordered
//   - [IntegratedAutocorrelationTime]: sweeps between independent samples
//
// # Estimating errors
//
// Correlated samples inflate naive error bars by a factor of √(2τ):
//
//	tau := analysis.IntegratedAutocorrelationTime(mags, 100)
//	effective := float64(len(mags)) / (2 * tau)
package analysis
