// Package gate runs code-quality gates against a module's source sets.
//
// A gate pairs a RuleSet (tool name, rule file, optional suppression file,
// ignoreFailures and maxWarnings) with a Check that decides how violations
// are found. Check is a closed variant: StaticAnalysis evaluates regex rules
// or drives an external analyser, FormatCheck enforces layout rules. Every
// run works on a private copy of the sources, removes suppressed
// violations, and compares the remaining count with the threshold:
//
//	Passed = ViolationCount <= MaxWarnings || IgnoreFailures
//
// An HTML report is written as a side channel. Report failures are logged
// and never change the outcome.
package gate
