// Package notifier posts schedule change notifications.
//
// Changes found while merging a scrape into the store (cancelled, reinstated,
// added or removed classes) are packed into short messages and sent to Twitter,
// a Telegram chat, or an io.Writer for dry runs.
package notifier
