package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/filters"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/repair"
)

func main() {
	opts := filters.DefaultMeshCheckerOptions()
	var outputPath string
	flag.BoolVar(&opts.CheckWatertight, "watertight", opts.CheckWatertight,
		"check that the mesh is closed and bounds a volume")
	flag.BoolVar(&opts.CheckIntersect, "intersect", opts.CheckIntersect,
		"check for self-intersections")
	flag.BoolVar(&opts.AttemptRepair, "repair", opts.AttemptRepair,
		"attempt to repair failed checks")
	flag.BoolVar(&opts.UpdateAttributes, "update-attributes", opts.UpdateAttributes,
		"carry fields over to the output")
	flag.StringVar(&outputPath, "output", "", "path to save the (possibly repaired) mesh")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: check_mesh [flags] <input>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}

	log.Println("Loading mesh...")
	input, err := host.LoadPolyData(args[0])
	essentials.Must(err)

	log.Println("Checking mesh...")
	checker, err := filters.NewMeshChecker(opts)
	essentials.Must(err)
	out, report, err := checker.Check(&filters.Request{Input: input})
	essentials.Must(err)

	fmt.Println("Stages:", report.States)
	PrintCheck("Closed", report.Closed)
	PrintCheck("Bounds volume", report.BoundsVolume)
	PrintCheck("Free of self-intersections", report.SelfIntersects)
	for _, w := range out.Warnings {
		fmt.Println("Warning:", w)
	}

	if outputPath != "" {
		log.Println("Saving mesh...")
		essentials.Must(host.SavePolyData(outputPath, out.Data))
	}
}

func PrintCheck(name string, c repair.Check) {
	if !c.Checked {
		fmt.Printf("%s: not checked\n", name)
		return
	}
	suffix := ""
	if c.Repaired {
		suffix = " (after repair)"
	}
	fmt.Printf("%s: %v%s\n", name, c.Passed, suffix)
}
