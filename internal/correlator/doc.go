// Package correlator evaluates local n-body correlators g_n(x) of a GHD state.
//
// g_n is assembled from the coefficient fields B_1..B_n, which follow from a
// sequential linear recurrence of dressed kernel functions b_1..b_{2n−1}, and a
// sum over the integer partitions of n (see [Partitions]).
package correlator
