// Package fsobj exposes the filesystem to scripts through a Path object.
// Path is the canonical script-created host class: its elements are
// internal, reference-counted, and die with their last script reference,
// unlike the kernel-owned genetics classes.
package fsobj

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

// ClassName is the script-visible class of Path elements.
const ClassName = "Path"

func init() {
	signature.Default.MustRegisterMethods(ClassName,
		signature.New("files", signature.String).
			Arg("pattern", signature.String|signature.Singleton|signature.Optional).
			InstanceMethod(),
		signature.New("readFile", signature.String).
			Arg("name", signature.String|signature.Singleton).
			InstanceMethod(),
		signature.New("writeFile", signature.Logical|signature.Singleton).
			Arg("name", signature.String|signature.Singleton).
			Arg("lines", signature.String).
			InstanceMethod(),
	)
}

// Path proxies one directory.
type Path struct {
	value.InternalElement
	base string
}

// New creates a Path rooted at base; "~" expands to the home directory.
func New(base string) *Path {
	if strings.HasPrefix(base, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			base = home + base[1:]
		}
	}
	return &Path{InternalElement: value.NewInternalElement(), base: base}
}

func (p *Path) ClassName() string          { return ClassName }
func (p *Path) ReadOnlyMembers() []string  { return nil }
func (p *Path) ReadWriteMembers() []string { return []string{"path"} }

func (p *Path) GetMember(name string) (value.Value, error) {
	if name == "path" {
		return value.NewString(p.base), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, ClassName)
}

func (p *Path) SetMember(name string, v value.Value) error {
	if name != "path" {
		return core.NoposErrf(core.ErrResolve, "SetMember", "unknown member %s on class %s", name, ClassName)
	}
	s, err := v.StringAt(0)
	if err != nil {
		return err
	}
	p.base = s
	return nil
}

func (p *Path) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	switch name {
	case "files":
		pattern := "*"
		if len(args) > 0 && args[0] != nil {
			s, err := args[0].StringAt(0)
			if err != nil {
				return nil, err
			}
			pattern = s
		}
		matches, err := doublestar.Glob(os.DirFS(p.base), pattern)
		if err != nil {
			return nil, core.NoposErrf(core.ErrRuntime, "files", "bad glob pattern %q: %v", pattern, err)
		}
		return value.NewString(matches...), nil

	case "readFile":
		fname, err := args[0].StringAt(0)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(p.base, fname))
		if err != nil {
			return nil, core.NoposErrf(core.ErrRuntime, "readFile", "cannot read %s: %v", fname, err)
		}
		text := strings.TrimSuffix(string(data), "\n")
		if text == "" {
			return value.NewString(), nil
		}
		return value.NewString(strings.Split(text, "\n")...), nil

	case "writeFile":
		fname, err := args[0].StringAt(0)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for i := 0; i < args[1].Count(); i++ {
			line, err := args[1].StringAt(i)
			if err != nil {
				return nil, err
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		if err := os.WriteFile(filepath.Join(p.base, fname), []byte(sb.String()), 0o644); err != nil {
			return value.StaticFalse, nil
		}
		return value.StaticTrue, nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, ClassName)
}
