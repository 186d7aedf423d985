// Package analysis scores program results.
//
// The ranking analyzer decides which ranked explanations of a test case
// satisfy one of its expected modification sets. The performance analyzer
// times every test case and reports checkpoint-to-checkpoint durations.
// Both render a text report and attach structured data for JSON output.
package analysis
