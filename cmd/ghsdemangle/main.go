// Command ghsdemangle is a line-oriented demangling service.  It
// reads one GHS-mangled symbol per line on stdin and writes the
// demangled declaration (or the raw input, when the symbol doesn't
// parse) per line on stdout.  It is designed to run as a long-lived
// co-process, so output is flushed after every line.
//
// A single positional argument selects the output form: any subset of
// `r` (drop return types), `a` (drop argument lists) and `b` (emit
// length-prefixed binary frames instead of text), concatenated in any
// order.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hashicorp/logutils"

	"github.com/syoch/lib-wii-u-format/ghsdemangle"
)

func main() {
	logLevel := flag.String("loglevel", "WARN", "Minimum log level (DEBUG, WARN, ERROR)")
	flag.Parse()

	log.SetFlags(0)
	log.SetOutput(&logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(*logLevel),
		Writer:   os.Stderr,
	})

	var removeRetType, removeArgs, asBinary bool
	if flag.NArg() > 0 {
		for _, mode := range flag.Arg(0) {
			switch mode {
			case 'r':
				removeRetType = true
			case 'a':
				removeArgs = true
			case 'b':
				asBinary = true
			default:
				log.Fatalf("[ERROR] unknown mode flag %q", mode)
			}
		}
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()

	demangler := ghsdemangle.NewDemangler()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "____") {
			line = line[2:]
		}

		fn, err := demangler.Demangle(line)
		if err != nil {
			fmt.Fprintln(stdout, line)
			stdout.Flush()
			continue
		}

		if removeRetType {
			fn.ReturnType = ghsdemangle.Type{}
		}
		if removeArgs {
			fn.Args = nil
		}

		if asBinary {
			stdout.Write(ghsdemangle.EncodeFrame(fn))
		} else {
			fmt.Fprintln(stdout, fn)
		}
		stdout.Flush()
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("[ERROR] reading stdin: %s", err)
	}
}
