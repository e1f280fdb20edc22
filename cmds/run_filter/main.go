package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/filters"
	"github.com/unixpickle/mesh-pmp/host"
)

func main() {
	var options string
	var optionsPath string
	var sourcePath string
	var targetsPath string
	var selectPoints string
	var selectCells string
	var reportPath string
	var listFilters bool
	flag.StringVar(&options, "options", "", "filter options as a JSON object")
	flag.StringVar(&optionsPath, "options-file", "", "path to a JSON file of filter options")
	flag.StringVar(&sourcePath, "source", "", "path to the second boolean operand")
	flag.StringVar(&targetsPath, "targets", "", "path to deformation targets")
	flag.StringVar(&selectPoints, "select-points", "", "comma-separated point indices to select")
	flag.StringVar(&selectCells, "select-cells", "", "comma-separated cell indices to select")
	flag.StringVar(&reportPath, "report", "", "path to write a JSON summary of the run")
	flag.BoolVar(&listFilters, "list", false, "list the available filters and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: run_filter [flags] <filter> <input> <output>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	registry := filters.NewRegistry()
	if listFilters {
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return
	}

	args := flag.Args()
	if len(args) != 3 {
		flag.Usage()
		os.Exit(1)
	}
	filterName, inputPath, outputPath := args[0], args[1], args[2]

	if optionsPath != "" {
		if options != "" {
			essentials.Die("Only one of -options and -options-file may be passed.")
		}
		data, err := os.ReadFile(optionsPath)
		essentials.Must(err)
		options = string(data)
	}
	filter, err := registry.New(filterName, json.RawMessage(options))
	essentials.Must(err)

	log.Println("Loading input...")
	req := &filters.Request{}
	req.Input, err = host.LoadPolyData(inputPath)
	essentials.Must(err)
	if sourcePath != "" {
		log.Println("Loading source...")
		req.Source, err = host.LoadPolyData(sourcePath)
		essentials.Must(err)
	}
	if targetsPath != "" {
		log.Println("Loading targets...")
		req.Targets, err = host.LoadPolyData(targetsPath)
		essentials.Must(err)
	}
	if selectPoints != "" || selectCells != "" {
		req.Selection = &filters.Selection{
			Points: ParseIndices(selectPoints),
			Cells:  ParseIndices(selectCells),
		}
	}

	log.Printf("Running %s...", filter.Name())
	out, err := filter.Run(req)
	essentials.Must(err)

	log.Println("Saving output...")
	essentials.Must(host.SavePolyData(outputPath, out.Data))

	if reportPath != "" {
		log.Println("Saving report...")
		report := &Report{
			Filter:    filter.Name(),
			NumPoints: out.Data.NumPoints(),
			NumCells:  out.Data.NumCells(),
		}
		for _, w := range out.Warnings {
			report.Warnings = append(report.Warnings, &WarningInfo{
				Kind:    w.Kind.String(),
				Message: w.Message,
			})
		}
		essentials.Must(host.Save(reportPath, report, func(w io.Writer, r *Report) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}))
	}
}

func ParseIndices(list string) []int {
	if list == "" {
		return nil
	}
	var res []int
	for _, field := range strings.Split(list, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			essentials.Die("Invalid index list:", list)
		}
		res = append(res, idx)
	}
	return res
}

type Report struct {
	Filter    string         `json:"filter"`
	NumPoints int            `json:"num_points"`
	NumCells  int            `json:"num_cells"`
	Warnings  []*WarningInfo `json:"warnings"`
}

type WarningInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
