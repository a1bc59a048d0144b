// Package models defines server-side data models persisted in the database
// or tracked in process memory.
package models

import "time"

// FileRecord describes metadata for an uploaded file. The bytes themselves
// live in object storage under StorageKey.
type FileRecord struct {
	// ID is an opaque identifier generated at upload time (UUID).
	ID string
	// Filename is the original client-supplied file name.
	Filename string
	// Title is the display title; defaults to the filename.
	Title string
	// Description is optional free text.
	Description string
	// Folder is the canonical folder category (documents, images, videos,
	// music, archives, others).
	Folder string
	// Size is the payload size in bytes.
	Size int64
	// DeviceName is the device that uploaded the file.
	DeviceName string
	// UserID is the owner of the file.
	UserID string
	// StorageKey is the object-storage key of the payload,
	// "{folder}/{id}_{filename}".
	StorageKey string
	// CreatedAt is the upload timestamp.
	CreatedAt time.Time
}
