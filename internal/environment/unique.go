package environment

import (
	"context"
	"fmt"

	"github.com/matt-ortiz/PyScheduler/internal/store"
)

// ResolveUniqueSlug slugifies name and, if it collides with another
// script in the same folder, appends "-2", "-3", ... until free —
// the original's ensure_unique_safe_name loop, adapted to a single
// indexed lookup per candidate instead of a raw SQL re-query.
func ResolveUniqueSlug(ctx context.Context, s *store.Store, name string, folderID *uint, excludeID *uint) (string, error) {
	base := Slugify(name)
	candidate := base
	counter := 1
	for {
		existing, err := s.GetScriptBySlug(ctx, candidate)
		if err != nil {
			return candidate, nil
		}
		if (excludeID != nil && existing.ID == *excludeID) || !sameFolder(existing.FolderID, folderID) {
			return candidate, nil
		}
		counter++
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

func sameFolder(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FolderPathFor walks a folder's ancestry to build the nested
// directory segment used by PathsFor (e.g. "team/etl" for a script
// filed under etl nested in team).
func FolderPathFor(ctx context.Context, s *store.Store, folderID *uint) (string, error) {
	if folderID == nil {
		return "", nil
	}
	var segments []string
	id := folderID
	for id != nil {
		f, err := s.GetFolder(ctx, *id)
		if err != nil {
			return "", err
		}
		segments = append([]string{f.Name}, segments...)
		id = f.ParentID
	}
	path := ""
	for _, seg := range segments {
		if path == "" {
			path = seg
		} else {
			path = path + "/" + seg
		}
	}
	return path, nil
}
