package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/Mavwarf/iconset/internal/idiom"
	"github.com/Mavwarf/iconset/internal/pipeline"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// cliOpts holds the global flags. Zero values mean "not given" so that
// config file and environment values survive.
type cliOpts struct {
	ConfigPath string
	Idioms     string
	Prefix     string
	PrefixSet  bool // an empty prefix is valid
	Badge      string
	Out        string
	Author     string
	Workers    int // -1 = not given
	Limit      int
	NoHistory  bool
	Quiet      bool
	Verbose    bool
	LogJSON    bool
}

func main() {
	opts, rest, err := parseArgs(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}

	if len(rest) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch rest[0] {
	case "help", "-h", "--help":
		printUsage()
	case "version", "--version":
		printVersion()
	case "list", "-l", "--list":
		os.Exit(listCmd(opts))
	case "sizes":
		os.Exit(sizesCmd(opts))
	case "history":
		os.Exit(historyCmd(rest[1:], opts))
	case "generate":
		os.Exit(generateCmd(rest[1:], opts))
	default:
		os.Exit(generateCmd(rest, opts))
	}
}

// parseArgs extracts flags from anywhere in args and returns the
// remaining positional arguments in order.
func parseArgs(args []string) (cliOpts, []string, error) {
	opts := cliOpts{Workers: -1}
	var rest []string

	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		var err error
		switch a {
		case "--config", "-c":
			opts.ConfigPath, err = value(&i, a)
		case "--idiom", "--idioms", "-i", "--device", "-d":
			opts.Idioms, err = value(&i, a)
		case "--prefix", "-p":
			opts.Prefix, err = value(&i, a)
			opts.PrefixSet = true
		case "--badge", "-b":
			opts.Badge, err = value(&i, a)
		case "--out", "-o":
			opts.Out, err = value(&i, a)
		case "--author":
			opts.Author, err = value(&i, a)
		case "--workers", "-w":
			var v string
			if v, err = value(&i, a); err == nil {
				opts.Workers, err = strconv.Atoi(v)
				if err != nil || opts.Workers < 0 {
					err = fmt.Errorf("%s must be a non-negative number", a)
				}
			}
		case "-n", "--limit":
			var v string
			if v, err = value(&i, a); err == nil {
				opts.Limit, err = strconv.Atoi(v)
				if err != nil || opts.Limit < 0 {
					err = fmt.Errorf("%s must be a non-negative number", a)
				}
			}
		case "--no-history":
			opts.NoHistory = true
		case "--quiet", "-q":
			opts.Quiet = true
		case "--verbose", "-v":
			opts.Verbose = true
		case "--log-json":
			opts.LogJSON = true
		default:
			if strings.HasPrefix(a, "--") && a != "--help" && a != "--version" && a != "--list" {
				return cliOpts{}, nil, fmt.Errorf("unknown flag %s", a)
			}
			rest = append(rest, a)
		}
		if err != nil {
			return cliOpts{}, nil, err
		}
	}
	return opts, rest, nil
}

// exitCode maps a run error to the process exit status:
// 0 success, 2 partial (some sizes failed), 1 anything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *pipeline.PartialError
	if errors.As(err, &pe) {
		return 2
	}
	return 1
}

func printVersion() {
	fmt.Printf("iconset %s (%s) %s/%s\n", version, buildDate, runtime.GOOS, runtime.GOARCH)
}

func printUsage() {
	fmt.Printf("iconset %s - Generate an app icon asset catalog from one image\n", version)
	fmt.Printf(`
Usage:
  iconset [options] <source-image>
  iconset generate [options] <source-image>
  iconset list [options]
  iconset sizes [options]
  iconset history [-n N] [clear | <run-id>]

Options:
  --idiom, -i <list>     Comma-separated idioms: %s (default: all)
  --prefix, -p <text>    File name prefix (default: AppIcon-)
  --badge, -b <path>     Image drawn over every icon at full size
  --out, -o <dir>        Directory receiving AppIcon.xcassets (default: .)
  --workers, -w <n>      Parallel renders (default: one per CPU)
  --author <name>        Author written to Contents.json
  --config, -c <path>    Path to iconset.json
  --no-history           Do not record this run
  --quiet, -q            Only log warnings and errors
  --verbose, -v          Log debug detail
  --log-json             Log JSON lines instead of console text

Commands:
  generate               Render PNGs and write both Contents.json files
  list, -l, --list       Show the resolved icon entries without rendering
  sizes                  Show the distinct pixel sizes that would be rendered
  history                Show recent runs, one run's outputs, or clear history
  version                Show version and build date
  help, -h, --help       Show this help message

Config resolution:
  1. --config <path>
  2. iconset.json in the working directory
  3. iconset.json next to binary
  4. ~/.config/iconset/iconset.json
  ICONSET_* environment variables override the file; flags override both.

Exit status:
  0 all icons written, 1 fatal error, 2 some sizes failed

Examples:
  iconset icon.png                         All idioms into ./AppIcon.xcassets
  iconset -i iphone,ipad -o ios icon.png   iPhone and iPad only
  iconset -b beta.png icon.png             Overlay a beta badge
  iconset list -i watch                    Preview watch entries
`, strings.Join(idiom.ValidTokens(), ", "))
}
