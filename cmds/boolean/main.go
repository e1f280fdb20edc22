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
	opts := filters.DefaultBooleanOptions()
	flag.StringVar(&opts.Operation, "op", opts.Operation, "difference, intersection, or union")
	flag.IntVar(&opts.Resolution, "resolution", opts.Resolution,
		"grid resolution for intersecting operands (0 for default)")
	flag.BoolVar(&opts.UpdateAttributes, "update-attributes", opts.UpdateAttributes,
		"interpolate fields of the first operand onto the output")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: boolean [flags] <input> <source> <output>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 3 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath, sourcePath, outputPath := args[0], args[1], args[2]

	filter, err := filters.NewBooleanFilter(opts)
	essentials.Must(err)

	log.Println("Loading operands...")
	input, err := host.LoadPolyData(inputPath)
	essentials.Must(err)
	source, err := host.LoadPolyData(sourcePath)
	essentials.Must(err)

	log.Printf("Computing %s...", opts.Operation)
	out, err := filter.Run(&filters.Request{Input: input, Source: source})
	essentials.Must(err)

	log.Println("Saving mesh...")
	essentials.Must(host.SavePolyData(outputPath, out.Data))
}
