package domain

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
)

// Scope is the execution context of an operation: machine-wide, or tied to
// a working directory for managers with a per-project mode.
type Scope struct {
	Global bool
	Dir    string
}

// GlobalScope is the default machine-wide scope.
var GlobalScope = Scope{Global: true}

// ParseScope validates a scope name ("global" or "local") and, for local
// scope, resolves and checks the working directory.
func ParseScope(scope, dir string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "", "global":
		return GlobalScope, nil
	case "local":
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return Scope{}, fmt.Errorf("local scope requires a directory")
		}
		if rest, ok := strings.CutPrefix(dir, "~/"); ok {
			home, err := os.UserHomeDir()
			if err != nil {
				return Scope{}, fmt.Errorf("resolve home directory: %w", err)
			}
			dir = filepath.Join(home, rest)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return Scope{}, fmt.Errorf("directory %s does not exist or is not accessible", dir)
		}
		return Scope{Dir: dir}, nil
	default:
		return Scope{}, fmt.Errorf("unsupported scope %q", scope)
	}
}

// Qualify derives a deterministic key from a base name and the scope. Local
// keys embed a hash of the working directory so keys stay short while two
// directories almost never collide.
func (s Scope) Qualify(base string) string {
	if s.Global {
		return base + "-global"
	}
	key := base + "-local"
	if s.Dir != "" {
		h := fnv.New64a()
		h.Write([]byte(s.Dir))
		key = fmt.Sprintf("%s-%d", key, h.Sum64())
	}
	return key
}
