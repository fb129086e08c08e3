// Package storage provides the document stores that hold parsed days and manifests.
//
// Every record is a JSON document addressed by a flat key such as
// "denver_2026_06_01.json". A Store only needs get, put and list operations, so the
// same aggregation logic runs against a local data directory (FileStore), an S3
// bucket (S3Store), the files of a GitHub Gist (GistStore) or memory (MemoryStore).
// The default file location is ~/.local/share/rec-schedule/.
package storage
