// Package cli implements the command-line interface for rec-schedule.
//
// The cli package provides the Cobra-based CLI: parsing saved schedule text or HTML,
// scraping the live schedule with a headless browser, merging days into the document
// store, rebuilding manifests, exporting iCalendar feeds, posting change notifications
// and running scheduled scrapes.
// Output is text or JSON, with filtering and sorting of events.
package cli
