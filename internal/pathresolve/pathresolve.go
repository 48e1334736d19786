// Package pathresolve expands and normalizes paths that may originate from
// a local shell, a remote SSH host, or a container mount namespace. Every
// operation is pure: callers supply whatever remote-user/home context they
// already have rather than this package doing I/O to discover it.
package pathresolve

import (
	"path"
	"strings"

	"mux/internal/muxerr"
)

// HomeContext carries the information Resolve needs to expand `~`/`~user`
// without performing any I/O itself.
type HomeContext struct {
	// CurrentUser is the username whose home `~` (bare tilde) expands to.
	CurrentUser string
	// Homes maps username -> home directory for every user this caller has
	// already resolved (including CurrentUser).
	Homes map[string]string
}

func (h HomeContext) homeFor(user string) (string, bool) {
	if h.Homes == nil {
		return "", false
	}
	home, ok := h.Homes[user]
	return home, ok
}

// Resolve expands a leading `~` or `~user`, normalizes backslashes to
// forward slashes, and cleans the result; a path without `~` keeps its
// absolute or relative form. It never checks whether
// the target exists. Returns muxerr.ErrPathUnknownHome if `~` is present
// but the relevant home directory is not present in ctx.
func Resolve(p string, ctx HomeContext) (string, error) {
	p = toSlash(p)

	if !strings.HasPrefix(p, "~") {
		if path.IsAbs(p) {
			return path.Clean(p), nil
		}
		// Relative paths with no base are returned cleaned, as-is; callers
		// that need base-relative semantics should use Normalize instead.
		return path.Clean(p), nil
	}

	rest := p[1:]
	user := ctx.CurrentUser
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		if idx > 0 {
			user = rest[:idx]
		}
		rest = rest[idx:]
	} else if rest != "" {
		user = rest
		rest = ""
	}

	home, ok := ctx.homeFor(user)
	if !ok {
		return "", muxerr.ErrPathUnknownHome
	}

	if rest == "" {
		return path.Clean(home), nil
	}
	return path.Clean(home + rest), nil
}

// Normalize resolves target relative to base. `"."` means "the base
// itself". A leading `~` in target is left untouched (callers wanting tilde
// expansion call Resolve first).
func Normalize(target, base string) string {
	target = toSlash(target)
	base = toSlash(base)

	if target == "." || target == "" {
		return path.Clean(base)
	}
	if strings.HasPrefix(target, "~") || path.IsAbs(target) {
		return path.Clean(target)
	}
	return path.Clean(path.Join(base, target))
}

// MapHostPathToContainer rewrites a host path onto its mounted location
// inside a devcontainer. Returns ("", false) when hostPath is not under currentWorkspacePath.
func MapHostPathToContainer(hostPath, currentWorkspacePath, mountedWorkspaceFolder string) (string, bool) {
	hostPath = toSlash(hostPath)
	base := toSlash(currentWorkspacePath)

	rel, ok := trimPrefixPath(hostPath, base)
	if !ok {
		return "", false
	}
	if rel == "" {
		return path.Clean(mountedWorkspaceFolder), true
	}
	return path.Clean(mountedWorkspaceFolder + "/" + rel), true
}

// QuoteForContainer renders a path for safe interpolation into a remote
// shell command. A `~`-prefixed path becomes `"$HOME/suffix"` so the shell
// (not this process) performs expansion.
func QuoteForContainer(p string) string {
	p = toSlash(p)
	if !strings.HasPrefix(p, "~") {
		return shellQuote(p)
	}
	rest := strings.TrimPrefix(p, "~")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return `"$HOME"`
	}
	return `"$HOME/` + rest + `"`
}

func shellQuote(p string) string {
	return "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func trimPrefixPath(p, prefix string) (string, bool) {
	p = strings.TrimSuffix(p, "/")
	prefix = strings.TrimSuffix(prefix, "/")
	if p == prefix {
		return "", true
	}
	if strings.HasPrefix(p, prefix+"/") {
		return strings.TrimPrefix(p, prefix+"/"), true
	}
	return "", false
}

// HasDriveLetterOrBackslash reports whether p looks like a Windows path
// (drive letter or backslash), used by runtimes that must fall back to a
// default cwd when such a path is supplied for a container's working
// directory.
func HasDriveLetterOrBackslash(p string) bool {
	if strings.Contains(p, "\\") {
		return true
	}
	if len(p) >= 2 && p[1] == ':' {
		c := p[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}
