// Package reasoner decides knowledge base consistency with Mangle Datalog rules.
//
// A snapshot is loaded as extensional facts (class, subclass_of,
// disjoint_with, domain_of, range_of, asserted_type, value). The rule program
// derives has_type from asserted types, the transitive subclass closure and
// property domain and range axioms, then reports every individual that is an
// instance of two disjoint classes. Functional properties carrying more than
// one distinct object are reported as well.
package reasoner
