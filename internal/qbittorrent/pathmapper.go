package qbittorrent

import (
	"sort"
	"strings"
)

// PathMapper translates save paths between the local filesystem view and
// the one qBittorrent sees, for setups where the two run in different
// containers or hosts.
type PathMapper struct {
	mappings []pathMapping
}

type pathMapping struct {
	local  string
	remote string
}

// NewPathMapper builds a mapper from local-prefix to remote-prefix pairs.
// Longer local prefixes win so the most specific mapping applies.
func NewPathMapper(mappings map[string]string) *PathMapper {
	mapper := &PathMapper{}
	for local, remote := range mappings {
		local = strings.TrimRight(strings.TrimSpace(local), "/")
		remote = strings.TrimRight(strings.TrimSpace(remote), "/")
		if local == "" || remote == "" {
			continue
		}
		mapper.mappings = append(mapper.mappings, pathMapping{local: local, remote: remote})
	}
	sort.Slice(mapper.mappings, func(i, j int) bool {
		return len(mapper.mappings[i].local) > len(mapper.mappings[j].local)
	})
	return mapper
}

// ToRemote converts a local path to the path qBittorrent should use.
// Paths outside every mapping pass through unchanged.
func (m *PathMapper) ToRemote(path string) string {
	for _, mapping := range m.mappings {
		if rest, ok := prefixRest(path, mapping.local); ok {
			return mapping.remote + rest
		}
	}
	return path
}

// ToLocal converts a qBittorrent path back to the local view.
func (m *PathMapper) ToLocal(path string) string {
	for _, mapping := range m.mappings {
		if rest, ok := prefixRest(path, mapping.remote); ok {
			return mapping.local + rest
		}
	}
	return path
}

// prefixRest matches on whole path components so "/data2" never matches a
// "/data" mapping.
func prefixRest(path, prefix string) (string, bool) {
	if path == prefix {
		return "", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):], true
	}
	return "", false
}
