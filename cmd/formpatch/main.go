// Command formpatch patches and inspects GameMaker "data.win"-style FORM
// archives.
//
// Usage:
//
//	formpatch patch <archive> <patchdir>          Replace TXTR/AUDO entries in place
//	formpatch apply-patch [options] <archive>     Apply a single named patch
//	formpatch dump <archive> <outdir>             Extract TXTR/AUDO entries to files
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/archtool/gmpatch/internal/container"
	"github.com/archtool/gmpatch/internal/dump"
	"github.com/archtool/gmpatch/internal/patch"
	"github.com/archtool/gmpatch/internal/patchdir"
	"github.com/archtool/gmpatch/internal/patcherr"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "formpatch: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "patch":
		err = runPatch(logger, os.Args[2:])
	case "apply-patch":
		err = runApplyPatch(logger, os.Args[2:])
	case "dump":
		err = runDump(logger, os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "formpatch: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logDiagnostic(logger, err)
		os.Exit(exitCode(err))
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  formpatch patch <archive> <patchdir>          Replace TXTR/AUDO entries in place
  formpatch apply-patch [options] <archive>     Apply a single named patch
  formpatch dump <archive> <outdir>             Extract TXTR/AUDO entries to files

Run "formpatch apply-patch -h" for apply-patch's flags.
`)
}

func runPatch(logger *zap.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("patch: usage: formpatch patch <archive> <patchdir>")
	}
	archivePath, dirPath := args[0], args[1]

	f, err := os.Open(archivePath)
	if err != nil {
		return patcherr.Wrap("opening archive", err)
	}
	defer f.Close()

	idx, err := container.Parse(f)
	if err != nil {
		return err
	}
	logger.Info("parsed archive", zap.String("path", archivePath), zap.Int("sections", len(idx.Chunks)))

	patches, err := patchdir.Build(dirPath, idx)
	if err != nil {
		return err
	}
	logger.Info("built patch list", zap.String("dir", dirPath), zap.Int("patches", len(patches)))

	plan := patch.NewPlan(idx)
	for _, p := range patches {
		if err := plan.Apply(p); err != nil {
			return err
		}
	}

	if err := patch.Write(plan, f, archivePath); err != nil {
		return err
	}
	logger.Info("patched archive", zap.String("path", archivePath), zap.Int("patches applied", len(patches)))
	return nil
}

// sprtChecksFlag accumulates repeated -check flags into []patch.SprtCheck.
// Each value is "tpagIndex,x,y,width,height,txtrIndex".
type sprtChecksFlag struct {
	checks *[]patch.SprtCheck
}

func (f *sprtChecksFlag) String() string { return "" }

func (f *sprtChecksFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return fmt.Errorf("-check: want tpag_index,x,y,width,height,txtr_index, got %q", s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("-check: %q is not an integer", p)
		}
		vals[i] = v
	}
	*f.checks = append(*f.checks, patch.SprtCheck{
		TpagIndex: vals[0],
		X:         uint16(vals[1]),
		Y:         uint16(vals[2]),
		Width:     uint16(vals[3]),
		Height:    uint16(vals[4]),
		TxtrIndex: uint16(vals[5]),
	})
	return nil
}

// runApplyPatch applies a single named patch to an archive in place,
// described entirely by flags, for scripting use per spec.md §2.
func runApplyPatch(logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("apply-patch", flag.ContinueOnError)
	section := fs.String("section", "", "section to patch: TXTR, AUDO, or SPRT")
	entry := fs.Int("entry", -1, "entry index (TXTR/AUDO)")
	src := fs.String("src", "", "replacement file path (TXTR/AUDO)")
	sprite := fs.String("sprite", "", "sprite name (SPRT)")
	var checks []patch.SprtCheck
	fs.Var(&sprtChecksFlag{&checks}, "check",
		"tpag_index,x,y,width,height,txtr_index coordinate assertion (SPRT, repeatable)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("apply-patch: usage: formpatch apply-patch [options] <archive>")
	}
	archivePath := fs.Arg(0)

	sec, ok := container.ParseSection([]byte(strings.ToUpper(*section)))
	if !ok {
		return fmt.Errorf("apply-patch: unknown -section %q", *section)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return patcherr.Wrap("opening archive", err)
	}
	defer f.Close()

	idx, err := container.Parse(f)
	if err != nil {
		return err
	}

	var p patch.Patch
	switch sec {
	case container.SectionTXTR:
		if *entry < 0 || *src == "" {
			return fmt.Errorf("apply-patch: -section TXTR requires -entry and -src")
		}
		if p, err = patchdir.BuildTxtrPatch(*entry, *src); err != nil {
			return err
		}
	case container.SectionAUDO:
		if *entry < 0 || *src == "" {
			return fmt.Errorf("apply-patch: -section AUDO requires -entry and -src")
		}
		if p, err = patchdir.BuildAudoPatch(*entry, *src); err != nil {
			return err
		}
	case container.SectionSPRT:
		if *sprite == "" {
			return fmt.Errorf("apply-patch: -section SPRT requires -sprite")
		}
		p = patch.Patch{Section: container.SectionSPRT, SpriteName: *sprite, SprtChecks: checks}
	default:
		return fmt.Errorf("apply-patch: unsupported -section %q", *section)
	}

	plan := patch.NewPlan(idx)
	if err := plan.Apply(p); err != nil {
		return err
	}

	if err := patch.Write(plan, f, archivePath); err != nil {
		return err
	}
	logger.Info("applied patch", zap.String("path", archivePath), zap.String("section", sec.String()))
	return nil
}

func runDump(logger *zap.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("dump: usage: formpatch dump <archive> <outdir>")
	}
	archivePath, outDir := args[0], args[1]

	f, err := os.Open(archivePath)
	if err != nil {
		return patcherr.Wrap("opening archive", err)
	}
	defer f.Close()

	idx, err := container.Parse(f)
	if err != nil {
		return err
	}
	logger.Info("parsed archive", zap.String("path", archivePath), zap.Int("sections", len(idx.Chunks)))

	if err := dump.Dump(idx, f, outDir); err != nil {
		return err
	}
	logger.Info("dumped archive", zap.String("path", archivePath), zap.String("outdir", outDir))
	return nil
}

// logDiagnostic emits the one-line diagnostic required by spec.md §7,
// naming the section and entry where the underlying error carries them.
func logDiagnostic(logger *zap.Logger, err error) {
	var perr *patcherr.Error
	if e, ok := err.(*patcherr.Error); ok {
		perr = e
	}
	if perr == nil {
		logger.Error("formpatch failed", zap.Error(err))
		return
	}

	fields := []zap.Field{zap.String("kind", perr.Kind.String())}
	if perr.Section != "" {
		fields = append(fields, zap.String("section", perr.Section))
	}
	if perr.Section != "" && perr.Index >= 0 {
		fields = append(fields, zap.Int("entry", perr.Index))
	}
	logger.Error(perr.Error(), fields...)
}

// exitCode maps an error's patcherr.Kind (if any) to a process exit code.
// Every non-nil error is non-zero per spec.md §6.
func exitCode(err error) int {
	e, ok := err.(*patcherr.Error)
	if !ok {
		return 1
	}
	switch e.Kind {
	case patcherr.Io:
		return 2
	case patcherr.InvalidFormat:
		return 3
	case patcherr.Unsupported:
		return 4
	case patcherr.PatchConflict:
		return 5
	case patcherr.OutOfMemory:
		return 6
	default:
		return 1
	}
}
