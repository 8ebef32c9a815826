package resultcache

import (
	"fmt"
	"path/filepath"
)

// Dir locates the three cache subdirectories beneath one study's cache
// root: source/, desired_cell/, and undesired_cell/, per §4.F.
type Dir struct {
	Root string
}

// SourcePath returns sourceKey's source-file path, per §4.F.
func (d Dir) SourcePath(sourceKey int32) string {
	return filepath.Join(d.Root, "source", fmt.Sprintf("%d", sourceKey))
}

// DesiredPath returns sourceKey's desired-cell-file path, per §4.F.
func (d Dir) DesiredPath(sourceKey int32) string {
	return filepath.Join(d.Root, "desired_cell", fmt.Sprintf("%d", sourceKey))
}

// UndesiredPath follows §4.F: undesired_cell/<key> for a global-grid
// study (desKey == 0, meaning "no separate desired key"), or
// undesired_cell/<key>_<desKey> for a local grid, where one grid exists
// per desired source.
func (d Dir) UndesiredPath(sourceKey, desKey int32) string {
	if desKey == 0 {
		return filepath.Join(d.Root, "undesired_cell", fmt.Sprintf("%d", sourceKey))
	}
	return filepath.Join(d.Root, "undesired_cell", fmt.Sprintf("%d_%d", sourceKey, desKey))
}
