// Package objkey implements the naming scheme that maps a file ID, folder
// category and original filename onto a stable object-storage key, and the
// reverse mapping from a key back to a file ID.
package objkey

import "strings"

// fallbackReplacer normalizes path-unsafe characters when a key carries no
// underscore-delimited ID prefix.
var fallbackReplacer = strings.NewReplacer(
	" ", "-",
	".", "-",
	"/", "-",
	"\\", "-",
	"[", "-",
	"]", "-",
	"(", "-",
	")", "-",
)

// DeriveKey returns the object-storage key for a file:
// "{folder}/{fileID}_{filename}". This is the single source of truth for
// locating bytes in the store. fileID must not contain an underscore or a
// path separator; IDs generated by this system are UUIDs and satisfy that.
func DeriveKey(fileID, folder, filename string) string {
	return folder + "/" + fileID + "_" + filename
}

// ExtractID recovers the file ID from an object key. For keys produced by
// DeriveKey the mapping is exact. For externally-placed objects with no
// underscore in the name the result is a best-effort normalization of the
// filename and may collide; callers should prefer the ID stored in object
// metadata when present.
func ExtractID(objectKey string) string {
	name := objectKey
	if idx := strings.Index(objectKey, "/"); idx >= 0 {
		name = objectKey[idx+1:]
	}
	if idx := strings.Index(name, "_"); idx >= 0 {
		return name[:idx]
	}
	return fallbackReplacer.Replace(name)
}

// Folder returns the folder prefix of an object key, or the empty string for
// keys without a path separator.
func Folder(objectKey string) string {
	if idx := strings.Index(objectKey, "/"); idx >= 0 {
		return objectKey[:idx]
	}
	return ""
}
