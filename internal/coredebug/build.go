package coredebug

import (
	"runtime"
	"runtime/debug"
	"strconv"
)

const unknownVersion = "(unable to determine)"

// Build is what the Go toolchain stamped into the running binary.
type Build struct {
	// Revision is the VCS revision, or "unknown" under "go run" and in tests.
	Revision string
	Modified bool

	// Deps maps module paths to the versions linked in.
	Deps map[string]string

	GoVersion string
}

// ReadBuild reports the build of the running binary.
func ReadBuild() Build {
	b := Build{
		Revision:  "unknown",
		Deps:      make(map[string]string),
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		b.Revision = "unknown (built without module support?)"
		return b
	}

	for _, dep := range bi.Deps {
		version := dep.Version
		if dep.Replace != nil {
			version = dep.Replace.Version
		}
		b.Deps[dep.Path] = version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value
		case "vcs.modified":
			b.Modified, _ = strconv.ParseBool(s.Value)
		}
	}
	return b
}

// Commit is the revision, marked when the working tree had uncommitted changes.
func (b Build) Commit() string {
	if b.Modified {
		return b.Revision + " (dirty)"
	}
	return b.Revision
}

// DepVersion returns the version of module path linked into the binary.
func (b Build) DepVersion(path string) string {
	if v, ok := b.Deps[path]; ok && v != "" {
		return v
	}
	return unknownVersion
}
