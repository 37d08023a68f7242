package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/pos-ledger/internal/types"
	"github.com/ginjaninja78/pos-ledger/pkg/utils"
)

// minNameTokens is the token count of <prefix>_<branch>_<pos>_<type>_<date>.
const minNameTokens = 5

// ParseFileName splits an export filename into its group key and file type.
// The extension is dropped first; names with fewer than five underscore
// separated tokens are not exports.
func ParseFileName(name string) (types.GroupKey, types.FileType, bool) {
	base := name
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}

	parts := strings.Split(base, "_")
	if len(parts) < minNameTokens {
		return types.GroupKey{}, "", false
	}

	key := types.GroupKey{
		Branch:   parts[1],
		Terminal: parts[2],
		Date:     parts[4],
	}
	return key, types.FileType(parts[3]), true
}

// Discover groups the files of the working directory by (branch, pos, date).
// Files are visited in lexical order, so when two files claim the same type
// for a group the lexically last one is kept. Unknown file types are ignored.
func Discover(fm *utils.FileManager) ([]types.Group, error) {
	names, err := fm.ListWorkingFiles()
	if err != nil {
		return nil, err
	}

	byKey := make(map[types.GroupKey]*types.Group)
	for _, name := range names {
		key, ft, ok := ParseFileName(name)
		if !ok || !known(ft) {
			continue
		}
		g, found := byKey[key]
		if !found {
			g = &types.Group{Key: key, Files: make(map[types.FileType]string)}
			byKey[key] = g
		}
		g.Files[ft] = filepath.Join(fm.WorkingDir, name)
	}

	groups := make([]types.Group, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	types.SortGroups(groups)
	return groups, nil
}

func known(ft types.FileType) bool {
	for _, t := range types.AllFileTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// GroupLabel renders a key as branch/pos/date for logs and reports.
func GroupLabel(key types.GroupKey) string {
	return fmt.Sprintf("%s/%s/%s", key.Branch, key.Terminal, key.Date)
}
