// Package analysis looks at the frame statistics of a finished run.
//
// A buoyant plume tends to puff at a steady rate. [PowerSpectrum] finds
// that rate in a series such as the total density per frame, and
// [Summarize] reports its level and drift:
//
//	ps, _ := analysis.PowerSpectrum(density, fps)
//	hz, _ := ps.Dominant()
package analysis
