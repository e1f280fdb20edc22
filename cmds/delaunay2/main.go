package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/filters"
	"github.com/unixpickle/mesh-pmp/host"
)

func main() {
	opts := filters.DefaultDelaunay2Options()
	flag.BoolVar(&opts.UpdateAttributes, "update-attributes", opts.UpdateAttributes,
		"copy point fields to the output")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: delaunay2 [flags] <input> <output>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Polygons and lines of the input become constraints.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath, outputPath := args[0], args[1]

	filter, err := filters.NewDelaunay2(opts)
	essentials.Must(err)

	log.Println("Loading points...")
	input, err := host.LoadPolyData(inputPath)
	essentials.Must(err)

	log.Println("Triangulating...")
	out, err := filter.Run(&filters.Request{Input: input})
	essentials.Must(err)
	if n := len(out.Warnings); n > 0 {
		log.Printf(" - skipped %d constraints", n)
	}

	log.Println("Saving mesh...")
	essentials.Must(host.SavePolyData(outputPath, out.Data))
}
