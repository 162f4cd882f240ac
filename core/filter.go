package core

import "strings"

// Filter scopes a search to specific files, folders, or tags. A nil *Filter
// or an empty one matches every document; there is no ambiguous "empty but
// present" state to handle at call sites.
type Filter struct {
	Files   []string // exact document paths
	Folders []string // folder prefixes, normalized via UnderFolder
	Tags    []string // tag names, case-insensitive, hierarchical
}

// IsEmpty reports whether the filter constrains nothing.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.Files) == 0 && len(f.Folders) == 0 && len(f.Tags) == 0)
}

// Describe renders the filter scope for user-facing messages, e.g. prompt
// instructions. Returns "" for an empty filter.
func (f *Filter) Describe() string {
	if f.IsEmpty() {
		return ""
	}
	var parts []string
	if len(f.Files) > 0 {
		parts = append(parts, "files: "+strings.Join(f.Files, ", "))
	}
	if len(f.Folders) > 0 {
		parts = append(parts, "folders: "+strings.Join(f.Folders, ", "))
	}
	if len(f.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(f.Tags, ", "))
	}
	return strings.Join(parts, "; ")
}

// UnderFolder reports whether a document path falls under a folder: either
// the path equals the folder itself or it starts with folder + "/". This is
// the single normalization routine shared by folder filters and
// excluded-folder checks.
func UnderFolder(documentPath, folder string) bool {
	folder = strings.TrimSuffix(folder, "/")
	if folder == "" {
		return false
	}
	return documentPath == folder || strings.HasPrefix(documentPath, folder+"/")
}

// TagMatches reports whether a document tag matches a filter tag: equal or
// hierarchically nested under it, case-insensitive. Leading '#' on either
// side is ignored.
func TagMatches(docTag, filterTag string) bool {
	d := strings.ToLower(strings.TrimPrefix(docTag, "#"))
	f := strings.ToLower(strings.TrimPrefix(filterTag, "#"))
	if f == "" {
		return false
	}
	return d == f || strings.HasPrefix(d, f+"/")
}
