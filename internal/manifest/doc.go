// Package manifest aggregates parsed days into week and master indices.
//
// Days are persisted one document per date, keyed "<prefix>_YYYY_MM_DD.json". A later
// extraction for the same date replaces the stored document entirely. After every merge
// the aggregator rebuilds, from the full set of stored days:
//
//   - one WeekManifest per Sunday-to-Saturday week ("week_YYYY_MM_DD.json", named by its Sunday)
//   - one MasterManifest ("manifest.json") listing all weeks in ascending order, with
//     current_week pointing at the week that contains today, or null
//
// Nothing is patched incrementally, so the manifests are a pure function of the stored
// days and the aggregation time.
package manifest
