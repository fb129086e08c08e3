// Package scraper acquires schedule page text for the parser.
//
// The parser consumes a linear stream of lines per view, the way a browser renders the
// page body. Three sources produce it:
//
//   - Browser renders the schedule with headless Chrome (chromedp), clicks through the
//     day tabs and reads the body text of each view
//   - Fetcher downloads a server-rendered page over HTTP and flattens its HTML
//   - FileSource reads a saved plain-text export or a saved HTML page
//
// Network sources retry with exponential backoff. The parser itself never retries.
package scraper
