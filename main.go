// srcslice extracts a minimal, compilable-looking slice of a C/C++
// codebase: every symbol transitively reachable from an entry file,
// comments stripped and whitespace collapsed.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/srcslice/srcslice/internal/config"
	"github.com/srcslice/srcslice/internal/dump"
	"github.com/srcslice/srcslice/internal/resolve"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("srcslice", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		entry         string
		depth         int
		output        string
		excludes      string
		maxFiles      int
		maxExpansions int
		rootFlag      string
		verbose       bool
		showVersion   bool
	)

	// Unset markers so persisted config can fill the gaps.
	fs.StringVar(&entry, "e", "", "entry file, relative to the project root")
	fs.StringVar(&entry, "entry", "", "entry file, relative to the project root")
	fs.IntVar(&depth, "d", -1, "maximum include depth to follow")
	fs.IntVar(&depth, "depth", -1, "maximum include depth to follow")
	fs.StringVar(&output, "o", "", "output file path, or - for stdout")
	fs.StringVar(&output, "out", "", "output file path, or - for stdout")
	fs.StringVar(&excludes, "x", "", "comma-separated glob patterns to exclude")
	fs.StringVar(&excludes, "exclude", "", "comma-separated glob patterns to exclude")
	fs.IntVar(&maxFiles, "max-files", 0, "abort if more than this many files are discovered")
	fs.IntVar(&maxExpansions, "max-expansions", 0, "abort after this many symbol expansions")
	fs.StringVar(&rootFlag, "root", "", "project root (same as the positional argument)")
	fs.BoolVar(&verbose, "v", false, "enable debug logging")
	fs.BoolVar(&verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "srcslice %s\n", version)
		return nil
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).
		Level(level).
		With().Timestamp().Logger()

	root := "."
	if rootFlag != "" {
		root = rootFlag
	}
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg := config.Load(root)
	if entry == "" {
		entry = cfg.Entry
	}
	if depth < 0 {
		depth = cfg.Depth
	}
	if output == "" {
		output = cfg.Output
	}

	if entry == "" {
		return fmt.Errorf("no entry file: pass -e or set entry in %s", config.FileName)
	}

	excludeList := cfg.Excludes
	if excludes != "" {
		excludeList = nil
		for _, pat := range strings.Split(excludes, ",") {
			if pat = strings.TrimSpace(pat); pat != "" {
				excludeList = append(excludeList, pat)
			}
		}
	}

	log.Debug().
		Str("root", root).
		Str("entry", entry).
		Int("depth", depth).
		Strs("excludes", excludeList).
		Msg("resolving")

	r, err := resolve.New(resolve.Options{
		Root:          root,
		Depth:         depth,
		MaxFiles:      maxFiles,
		MaxExpansions: maxExpansions,
		Excludes:      excludeList,
	})
	if err != nil {
		return err
	}
	s, err := r.Run(entry)
	if err != nil {
		return err
	}

	for _, n := range s.Notes {
		log.Warn().
			Str("kind", string(n.Kind)).
			Str("file", n.File).
			Msg(n.Detail)
	}

	text := dump.Render(s)

	if output == "-" {
		_, _ = io.WriteString(stdout, text)
	} else {
		path := output
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		log.Info().
			Str("path", path).
			Int("bytes", len(text)).
			Int("files", len(s.Files)).
			Int("symbols", len(s.Admitted)).
			Msg("slice written")
	}

	cfg.Entry = entry
	cfg.Depth = depth
	cfg.Output = output
	cfg.Excludes = excludeList
	if err := cfg.Save(root); err != nil {
		log.Warn().Err(err).Msg("could not persist config")
	}

	return nil
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-e": true, "--e": true,
	"-entry": true, "--entry": true,
	"-d": true, "--d": true,
	"-depth": true, "--depth": true,
	"-o": true, "--o": true,
	"-out": true, "--out": true,
	"-x": true, "--x": true,
	"-exclude": true, "--exclude": true,
	"-max-files": true, "--max-files": true,
	"-max-expansions": true, "--max-expansions": true,
	"-root": true, "--root": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
