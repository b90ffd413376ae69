// Command lyrical drives the compile pipeline end to end: preprocessing,
// IR construction, backend assembly, on-disk caching, optional debug info,
// optional filesystem-watch auto-restart, loading the assembled result into
// memory, and optional TCP/IPv4 server mode.
package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tambewilliam/lyrical-sub003/pkg/backend"
	"github.com/tambewilliam/lyrical-sub003/pkg/cache"
	"github.com/tambewilliam/lyrical-sub003/pkg/chunk"
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/loader"
	"github.com/tambewilliam/lyrical-sub003/pkg/preproc"
	"github.com/tambewilliam/lyrical-sub003/pkg/server"
	"github.com/tambewilliam/lyrical-sub003/pkg/watch"
)

var version = "0.1.0"

// Root-level flags shared by every subcommand.
var (
	targetArch string
	targetOS   string
)

// compile flags.
var (
	writeLog       bool
	writeDebug     bool
	preprocessOnly bool
	includePaths   []string
	tcpipv4addr    string
	cacheDir       string
	noCache        bool
	watchSources   bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lyrical: %v\n", err)
		return 1
	}
	return 0
}

// longFlagNames lists flags that accept the CompCert-style single-dash
// spelling (e.g. "-tcpipv4addr") in addition to pflag's usual "--" form,
// matching the original compiler's own argument parser.
var longFlagNames = []string{"tcpipv4addr", "cache-dir", "no-cache", "watch", "include"}

// normalizeFlags rewrites a single-dash long flag (e.g. "-tcpipv4addr") to
// pflag's expected double-dash form, leaving single-character flags
// ("-l", "-g", "-E", "-I") and already-double-dash flags untouched.
func normalizeFlags(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		for _, long := range longFlagNames {
			if name == long {
				out[i] = "-" + arg
				break
			}
		}
	}
	return out
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lyrical",
		Short:         "lyrical compiles and runs programs written in the Lyrical language",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVar(&targetArch, "arch", "x64", "target architecture (x86, x64)")
	rootCmd.PersistentFlags().StringVar(&targetOS, "os", runtime.GOOS, "target OS, used only to namespace the on-disk cache")

	rootCmd.AddCommand(newCompileCmd(out, errOut))
	return rootCmd
}

func newCompileCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "preprocess, compile and run a Lyrical source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doCompile(args[0], out, errOut)
		},
	}

	cmd.Flags().BoolVarP(&writeLog, "log", "l", false, "write a human-readable compilation log alongside the cache entry")
	cmd.Flags().BoolVarP(&writeDebug, "debug", "g", false, "generate debug info")
	cmd.Flags().BoolVarP(&preprocessOnly, "preprocess", "E", false, "preprocess only; print the result and exit")
	cmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "add a directory to the include search path")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "root of the on-disk compile cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always recompile, bypassing the cache")
	cmd.Flags().BoolVar(&watchSources, "watch", false, "re-exec on any change to a source file consumed by this compile")

	cmd.Flags().StringVar(&tcpipv4addr, "tcpipv4addr", "", "serve over TCP/IPv4 at [ip][:port] instead of running once")
	cmd.Flags().Lookup("tcpipv4addr").NoOptDefVal = "0.0.0.0:8080"

	return cmd
}

func defaultCacheDir() string {
	return filepath.Join(os.TempDir(), "lyrical-cache")
}

// doCompile preprocesses filename, obtains a backend result (from cache or
// freshly assembled), maps it into memory, and either runs it once or
// serves it over TCP/IPv4, depending on the flags parsed onto the package
// vars above.
func doCompile(filename string, out, errOut io.Writer) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", filename, err)
	}

	sess := preproc.NewSession(preproc.Options{StandardPaths: includePaths})
	defer sess.Close()

	chunks, err := sess.ProcessFile(abs)
	if err != nil {
		return fmt.Errorf("preprocessing: %w", err)
	}
	final := sess.Finish(chunks)
	source := final.Concat()

	if preprocessOnly {
		fmt.Fprint(out, source)
		return nil
	}

	srcFilePaths := consumedPaths(final)

	entry, err := cache.Open(filepath.Join(cacheDir, targetOS, targetArch), os.Getuid(), abs)
	if err != nil {
		return fmt.Errorf("opening cache entry: %w", err)
	}

	var prog *cache.Program
	if !noCache && entry.Valid() {
		prog, err = entry.Load()
		if err != nil {
			return fmt.Errorf("loading cached program: %w", err)
		}
	} else {
		flags := ir.CompileFlag(0)
		if writeLog {
			flags |= ir.FlagComment
		}
		if writeDebug {
			flags |= ir.FlagDebugInfo
		}

		result := buildCompileResult(source, srcFilePaths, flags)
		be := &backend.TextBackend{}
		br, err := be.Assemble(result)
		if err != nil {
			return fmt.Errorf("assembling: %w", err)
		}
		if err := entry.Store(br, result.GlobalRegionSize, srcFilePaths); err != nil {
			return fmt.Errorf("storing cache entry: %w", err)
		}
		if writeLog {
			if err := entry.WriteLog(renderLog(filename, result, br)); err != nil {
				return fmt.Errorf("writing log: %w", err)
			}
		}
		prog = &cache.Program{
			Executable:       br.Executable,
			InstructionsSize: br.InstructionsSize,
			ConstantsSize:    br.ConstantsSize,
			GlobalRegionSize: result.GlobalRegionSize,
			DebugInfo:        br.DebugInfo,
		}
	}

	img, err := loader.Load(prog.Executable, prog.GlobalRegionSize)
	if err != nil {
		return fmt.Errorf("loading program into memory: %w", err)
	}
	defer img.Unmap()
	if err := img.MakeExecutable(); err != nil {
		return fmt.Errorf("making program executable: %w", err)
	}

	if tcpipv4addr != "" {
		return serveTCPIPv4(tcpipv4addr, abs, entry)
	}

	if watchSources {
		return watchAndReexec(srcFilePaths)
	}

	fmt.Fprintf(errOut, "lyrical: compiled %s (%d bytes)\n", filename, len(prog.Executable))
	return nil
}

// consumedPaths returns every distinct Chunk.Path in final, in first-seen
// order: the set of source files this compile must be invalidated by, and
// the list pkg/watch observes for changes.
func consumedPaths(final *chunk.List) []string {
	seen := make(map[string]bool)
	var paths []string
	final.Walk(func(c *chunk.Chunk) bool {
		if c.Path != "" && !seen[c.Path] {
			seen[c.Path] = true
			paths = append(paths, c.Path)
		}
		return true
	})
	return paths
}

func serveTCPIPv4(addr, compiledFrom string, entry *cache.Entry) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = addr + ":8080"
	}
	srv := &server.Server{
		Addr:        addr,
		Root:        filepath.Dir(compiledFrom),
		ProgramPath: filepath.Join(entry.Dir, "bin"),
	}
	return srv.ListenAndServe()
}

func watchAndReexec(srcFilePaths []string) error {
	w, err := watch.New()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	if err := w.Watch(srcFilePaths); err != nil {
		return fmt.Errorf("watching sources: %w", err)
	}
	if _, err := w.Wait(); err != nil {
		return fmt.Errorf("watching sources: %w", err)
	}
	return watch.ReexecSelf()
}

func renderLog(filename string, result *backend.CompileResult, br *backend.BackendResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "source: %s\n", filename)
	fnCount := 0
	result.Functions.Walk(func(*ir.Function) bool { fnCount++; return true })
	fmt.Fprintf(&b, "functions: %d\n", fnCount)
	fmt.Fprintf(&b, "instructions-size: %d\n", br.InstructionsSize)
	fmt.Fprintf(&b, "constants-size: %d\n", br.ConstantsSize)
	fmt.Fprintf(&b, "exports: %d\n", len(br.ExportTable))
	fmt.Fprintf(&b, "imports: %d\n", len(br.ImportTable))
	return b.String()
}
