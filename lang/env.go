package lang

// This file defines the builtin environment shared by every expression. The
// environment is lazily initialized once per process and cloned on every
// access so callers may add bindings without affecting the shared copy.
//
// Variables of the running program shadow builtin names.

import (
	"bufio"
	"log/slog"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

var (
	builtinOnce sync.Once
	builtins    map[string]any
)

// Builtins returns a copy of the builtin environment.
func Builtins() map[string]any {
	builtinOnce.Do(func() {
		builtins = map[string]any{
			// Escapes for characters that are otherwise markup.
			"at":    "@",
			"amp":   "&",
			"slash": "/",

			// Host information.
			"target":   getTarget(),
			"platform": getPlatform(),
			"hostname": getHostname(),
			"shell":    getShell(),

			"cwd": getCwd,
			"env": envFunc(buildProcessEnvMap(nil)),

			"file": map[string]any{
				"exists":    fileExists,
				"isDir":     fileIsDir,
				"isRegular": fileIsRegular,
				"isSymlink": fileIsSymlink,
				"read":      fileRead,
			},

			"path": map[string]any{
				"abs":  pathAbs,
				"cat":  pathCat,
				"rel":  pathRel,
				"base": filepath.Base,
				"dir":  filepath.Dir,
				"ext":  filepath.Ext,
			},

			// PATH-like list manipulation.
			"mung": map[string]any{
				"prefix":   mungPrefix,
				"prefixif": mungPrefixIf,
			},
		}
	})

	return maps.Clone(builtins)
}

// BuiltinKeys returns the sorted top-level builtin names.
func BuiltinKeys() []string {
	return slices.Sorted(maps.Keys(Builtins()))
}

// BuiltinLookup returns the sorted keys of the builtin namespace at the
// dot-separated path, or nil if path does not name a namespace. The empty
// path names the top level.
func BuiltinLookup(path string) []string {
	if path == "" {
		return BuiltinKeys()
	}

	var cur any = Builtins()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}

		if cur, ok = m[seg]; !ok {
			return nil
		}
	}

	if m, ok := cur.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// ---------------------------------------------------------------------------
// Host information
// ---------------------------------------------------------------------------

// target identifies an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	o, ok := os.LookupEnv("GOHOSTOS")
	if !ok {
		o = runtime.GOOS
	}

	a, ok := os.LookupEnv("GOHOSTARCH")
	if !ok {
		a = runtime.GOARCH
	}

	return target{OS: o, Arch: a}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u, err := user.Current()
	if err != nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// ---------------------------------------------------------------------------
// Filesystem
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func fileRead(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", ErrEvaluate.With(slog.String("path", path)).Wrap(err)
	}

	return string(b), nil
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// ---------------------------------------------------------------------------
// PATH-like lists
// ---------------------------------------------------------------------------

func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// predicates are the named filters accepted by mung.prefixif.
var predicates = map[string]func(string) bool{
	"exists":    fileExists,
	"isDir":     fileIsDir,
	"isRegular": fileIsRegular,
	"isSymlink": fileIsSymlink,
}

// mungPrefixIf prefixes key with the items satisfying the file predicate
// named by pred, one of the keys of predicates.
func mungPrefixIf(key, pred string, prefix ...string) (string, error) {
	fn, ok := predicates[pred]
	if !ok {
		return "", ErrArgType.With(
			slog.String("predicate", pred),
			slog.String("want", strings.Join(slices.Sorted(maps.Keys(predicates)), "|")),
		)
	}

	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(fn),
	).String(), nil
}

// ---------------------------------------------------------------------------
// Process environment
// ---------------------------------------------------------------------------

// buildProcessEnvMap converts a "KEY=VALUE" list to a map.
// If envList is empty, os.Environ() is used.
func buildProcessEnvMap(envList []string, keyVal ...string) map[string]string {
	envList = append(envList, keyVal...)
	if len(envList) == 0 {
		envList = os.Environ()
	}

	result := make(map[string]string, len(envList))

	for _, entry := range envList {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}

// envFunc returns the env() builtin reading from processEnv.
func envFunc(processEnv map[string]string) func(string) string {
	return func(key string) string { return processEnv[key] }
}
