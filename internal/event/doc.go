// Package event provides the output records produced by the schedule extractor.
//
// An Event is one scheduled class or activity, kept in its display form (times such as
// "5:30am" are not normalized). A Day groups the events of one calendar date and is keyed
// by its ISO-8601 date. The package also resolves header dates whose year is missing and
// reports changes between two extractions of the same day.
package event
