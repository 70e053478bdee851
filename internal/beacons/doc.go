// Package beacons turns raw recording and level payloads into canonical beacon identifiers.
//
// Every extraction path is tolerant per entry: an entry with a missing or non-numeric field is
// skipped and reported as a [Warning] instead of failing the whole upload. Identifiers are
// normalized with [Normalize] (upper-cased UUID, negative major/minor wrapped by 65536).
//
// [Set] provides the set algebra used by the unheard comparison, and [Group] builds the
// uuid → major → minors view shown by the profiler.
package beacons
