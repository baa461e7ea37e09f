// pdfconcat concatenates the pages of several PDF files into one,
// renumbering every indirect object it copies and writing a fresh
// cross-reference table and trailer for the result.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benoitkugler/pdfconcat/internal/merge"
	"github.com/benoitkugler/pdfconcat/internal/pdferr"
	"github.com/benoitkugler/pdfconcat/internal/pdflog"
	"github.com/benoitkugler/pdfconcat/internal/sink"
	"github.com/benoitkugler/pdfconcat/internal/source"
)

const usage = "Usage: pdfconcat -o <output.pdf> <input1.pdf> [<input2.pdf> ...]\n"

func main() {
	defer pdflog.Sync()
	os.Exit(run(os.Args[1:]))
}

// run does all the work and returns the process exit code; kept
// separate from main so tests (and whoever scripts around this tool)
// can call it without actually exiting.
func run(args []string) int {
	var output string
	fs := flag.NewFlagSet("pdfconcat", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&output, "o", "", "output PDF path")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	inputs := fs.Args()
	if output == "" || len(inputs) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	for _, in := range inputs {
		if in == output {
			fmt.Fprintf(os.Stderr, "pdfconcat: may not append to existing PDF: %s\n", output)
			return 4
		}
	}

	srcs, files, code := openInputs(inputs)
	defer closeAll(files)
	if code != 0 {
		return code
	}

	outFile, err := os.OpenFile(output, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfconcat: open4write %s: %v\n", output, err)
		return 5
	}
	defer outFile.Close()

	out := sink.NewOutput(outFile, output)
	if err := merge.Run(srcs, out); err != nil {
		report(err)
		return exitCodeFor(err)
	}

	return 0
}

// openInputs opens and parses every input in order, mapping the
// command line's exit-code contract (6: unseekable, 7: undersized,
// 3: open or parse failure) onto whichever input first fails.
func openInputs(paths []string) ([]*source.Source, []*os.File, int) {
	srcs := make([]*source.Source, 0, len(paths))
	files := make([]*os.File, 0, len(paths))

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pdfconcat: open %s: %v\n", p, err)
			return srcs, files, 3
		}
		files = append(files, f)

		info, err := f.Stat()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pdfconcat: stat %s: %v\n", p, err)
			return srcs, files, 3
		}
		if info.Size() < source.MinFileSize {
			fmt.Fprintf(os.Stderr, "pdfconcat: invalid filesize for %s: %d\n", p, info.Size())
			return srcs, files, 7
		}

		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			fmt.Fprintf(os.Stderr, "pdfconcat: unseekable %s: %v\n", p, err)
			return srcs, files, 6
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			fmt.Fprintf(os.Stderr, "pdfconcat: unseekable %s: %v\n", p, err)
			return srcs, files, 6
		}

		src, err := source.Open(f, p, info.Size())
		if err != nil {
			report(err)
			return srcs, files, exitCodeFor(err)
		}
		srcs = append(srcs, src)
	}

	return srcs, files, 0
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func report(err error) {
	fmt.Fprintf(os.Stderr, "pdfconcat: %v\n", err)
}

// exitCodeFor maps a returned error to the command line's exit-code
// table, falling back to pdfconcat's internal classification (§7) for
// anything the CLI layer did not already special-case.
func exitCodeFor(err error) int {
	if e, ok := pdferr.As(err); ok {
		return e.Kind.ExitCode()
	}
	return 1
}
