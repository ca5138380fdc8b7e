// Command rpxls lists the contents of a Wii U RPX executable:
// sections, segments and symbols, with symbol names demangled.  The
// -stats flag summarizes function sizes across the image.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/gonum/stat"
	"github.com/hashicorp/logutils"

	"github.com/syoch/lib-wii-u-format/rpx"
)

func main() {
	var (
		showSections = flag.Bool("sections", false, "List sections")
		showSegments = flag.Bool("segments", false, "List segments")
		showSymbols  = flag.Bool("symbols", false, "List symbols with demangled names")
		showStats    = flag.Bool("stats", false, "Summarize function sizes")
		logLevel     = flag.String("loglevel", "WARN", "Minimum log level (DEBUG, WARN, ERROR)")
	)
	flag.Parse()

	log.SetFlags(0)
	log.SetOutput(&logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(*logLevel),
		Writer:   os.Stderr,
	})

	if flag.NArg() != 1 {
		log.Fatal("[ERROR] usage: rpxls [flags] <file.rpx>")
	}

	f, err := rpx.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("[ERROR] can't load %s: %s", flag.Arg(0), err)
	}

	if !*showSections && !*showSegments && !*showSymbols && !*showStats {
		*showSections = true
	}

	if *showSections {
		printSections(f)
	}
	if *showSegments {
		printSegments(f)
	}
	if *showSymbols {
		printSymbols(f)
	}
	if *showStats {
		printStats(f)
	}
}

func printSections(f *rpx.File) {
	fmt.Println("Section List")
	fmt.Println(" address   |size      |offset    |name")
	fmt.Println(" ----------|----------|----------|")
	for _, sh := range f.Sections {
		fmt.Printf(" %#010x|%#010x|%#010x|%s\n", sh.Addr, sh.Size, sh.Offset, sh.Name)
	}
}

func printSegments(f *rpx.File) {
	fmt.Println("Segment List")
	fmt.Println("           |Size                 |          |")
	fmt.Println("   VAddr   |Memory    |File      |offset    |")
	fmt.Println(" ----------|----------|----------|----------|")
	for _, ph := range f.Segments {
		fmt.Printf(" %#010x|%#010x|%#010x|%#010x|\n",
			ph.VirtualAddress, ph.MemSize, ph.FileSize, ph.Offset)
	}
}

func printSymbols(f *rpx.File) {
	symbols := make([]*rpx.Symbol, 0, len(f.Symbols))
	for _, sym := range f.Symbols {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Value < symbols[j].Value })

	for _, sym := range symbols {
		fmt.Println(sym)
	}
}

func printStats(f *rpx.File) {
	sizes := make([]float64, 0, len(f.Functions))
	for _, fn := range f.Functions {
		sizes = append(sizes, float64(fn.Size))
	}
	sort.Float64s(sizes)

	if len(sizes) == 0 {
		fmt.Println("no functions")
		return
	}

	fmt.Printf("functions   : %d\n", len(sizes))
	fmt.Printf("size mean   : %.1f\n", stat.Mean(sizes, nil))
	fmt.Printf("size stddev : %.1f\n", stat.StdDev(sizes, nil))
	fmt.Printf("size median : %.1f\n", stat.Quantile(0.5, stat.Empirical, sizes, nil))
}
