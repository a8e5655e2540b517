// Package labelfilter keeps, drops, or rate-limits individual metric series
// in a scraped snapshot.
//
// Rules match series by concatenating the values of configured source labels
// and testing the result against a regular expression that is anchored at
// both ends, following the Prometheus relabelling convention. Matching
// series are processed by an ordered action list; see Apply for the exact
// evaluation order.
//
// The engine is a pure function of (snapshot, rules, state, now): the only
// mutable piece, the ReduceTimeResolution series table, is passed in
// explicitly as a *State owned by the route.
package labelfilter
