package entry

import "strings"

const defaultContentType = "application/octet-stream"

// Matched case-insensitively.
var imageExts = map[string]struct{}{
	"png": {}, "gif": {}, "apng": {}, "webp": {}, "jpg": {}, "jpeg": {},
}

// Matched exactly.
var textExts = map[string]struct{}{
	"js": {}, "ts": {}, "javascript": {}, "typescript": {}, "html": {}, "css": {},
	"jsm": {}, "mjs": {}, "cjs": {}, "cs": {}, "cpp": {}, "h": {}, "c": {},
	"hpp": {}, "rs": {}, "rust": {}, "py": {}, "swift": {},
}

// InferContentType maps an extension hint to the Content-Type served for a file entry.
//
// Image extensions match regardless of case but keep the caller's casing in the
// result ("PNG" gives "image/PNG"). Text extensions must match exactly, so "RS"
// is not text. Anything else is passed through verbatim.
func InferContentType(ext string) string {
	if ext == "" {
		return defaultContentType
	}

	if _, ok := imageExts[strings.ToLower(ext)]; ok {
		return "image/" + ext
	}

	if _, ok := textExts[ext]; ok {
		return "text/" + ext
	}

	return ext
}
