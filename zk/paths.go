package zk

import "strings"

// ResolvePath resolves a possibly-relative key against cwd:
// a leading "/" is absolute; ".." drops the last segment (never below "/");
// otherwise the key is appended under cwd with exactly one "/" separator.
func ResolvePath(cwd, key string) string {
	if key == "" {
		return normalize(cwd)
	}
	if strings.HasPrefix(key, "/") {
		return normalize(key)
	}

	segments := splitSegments(cwd)
	for _, part := range strings.Split(key, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, part)
		}
	}
	return joinSegments(segments)
}

func splitSegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func joinSegments(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

func normalize(path string) string {
	return joinSegments(splitSegments(path))
}

// Parent returns the parent path of path, or "/" if path is already root.
func Parent(path string) string {
	segments := splitSegments(path)
	if len(segments) == 0 {
		return "/"
	}
	return joinSegments(segments[:len(segments)-1])
}

// Ancestors returns path's ancestors below "/" down to, but not including,
// path itself, shallowest first; "/" itself is not included. Used by
// EnsureParents/EnsurePath.
func Ancestors(path string) []string {
	segments := splitSegments(path)
	out := make([]string, 0, len(segments))
	for i := range segments {
		out = append(out, joinSegments(segments[:i+1]))
	}
	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}
