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
	opts := filters.DefaultRemeshOptions()
	flag.Float64Var(&opts.TargetLength, "length", opts.TargetLength,
		"target edge length (0 for 1% of the bounding box diagonal)")
	flag.Float64Var(&opts.ProtectAngle, "protect-angle", opts.ProtectAngle,
		"dihedral angle (degrees) above which edges are preserved")
	flag.IntVar(&opts.Iterations, "iterations", opts.Iterations, "number of remeshing passes")
	flag.BoolVar(&opts.UpdateAttributes, "update-attributes", opts.UpdateAttributes,
		"interpolate fields onto the output")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: remesh [flags] <input> <output>")
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

	remesher, err := filters.NewRemesher(opts)
	essentials.Must(err)

	log.Println("Loading mesh...")
	input, err := host.LoadPolyData(inputPath)
	essentials.Must(err)
	log.Printf(" - %d points, %d polygons", input.NumPoints(), len(input.Polys))

	log.Println("Remeshing...")
	out, err := remesher.Run(&filters.Request{Input: input})
	essentials.Must(err)
	log.Printf(" - %d points, %d polygons", out.Data.NumPoints(), len(out.Data.Polys))

	log.Println("Saving mesh...")
	essentials.Must(host.SavePolyData(outputPath, out.Data))
}
