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
	opts := filters.DefaultAlphaWrappingOptions()
	flag.Float64Var(&opts.Alpha, "alpha", opts.Alpha, "probing ball radius")
	flag.Float64Var(&opts.Offset, "offset", opts.Offset, "distance from the input to the wrap")
	flag.BoolVar(&opts.AbsoluteThresholds, "absolute", opts.AbsoluteThresholds,
		"treat alpha and offset as distances rather than percentages of the bounding box diagonal")
	flag.BoolVar(&opts.UpdateAttributes, "update-attributes", opts.UpdateAttributes,
		"interpolate fields onto the output")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: alpha_wrap [flags] <input> <output>")
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

	wrapper, err := filters.NewAlphaWrapper(opts)
	essentials.Must(err)

	log.Println("Loading input...")
	input, err := host.LoadPolyData(inputPath)
	essentials.Must(err)

	log.Println("Creating wrap...")
	out, err := wrapper.Run(&filters.Request{Input: input})
	essentials.Must(err)
	log.Printf(" - %d points, %d polygons", out.Data.NumPoints(), len(out.Data.Polys))

	log.Println("Saving mesh...")
	essentials.Must(host.SavePolyData(outputPath, out.Data))
}
