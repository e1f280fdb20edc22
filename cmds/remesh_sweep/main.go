package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/filters"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/model3d/model3d"
)

func main() {
	var fractions string
	var numSamples int
	var iterations int
	flag.StringVar(&fractions, "fractions", "0.04,0.02,0.01",
		"comma-separated target lengths as fractions of the bounding box diagonal")
	flag.IntVar(&numSamples, "num-samples", 200000, "number of point samples for containment error")
	flag.IntVar(&iterations, "iterations", 3, "remeshing passes per target length")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: remesh_sweep [flags] <input>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := args[0]

	log.Println("Loading mesh...")
	input, err := host.LoadPolyData(inputPath)
	essentials.Must(err)
	inputMesh := input.Mesh()
	meshField := model3d.MeshToSDF(inputMesh)
	meshSolid := model3d.NewColliderSolid(model3d.MeshToCollider(inputMesh))

	log.Println("Sampling points...")
	min, max := input.Min(), input.Max()
	points := make([]model3d.Coord3D, numSamples)
	values := make([]bool, numSamples)
	essentials.StatefulConcurrentMap(0, numSamples, func() func(i int) {
		gen := rand.New(rand.NewSource(rand.Int63()))
		size := max.Sub(min)
		return func(i int) {
			point := model3d.XYZ(gen.Float64(), gen.Float64(), gen.Float64()).Mul(size).Add(min)
			points[i] = point
			values[i] = meshSolid.Contains(point)
		}
	})

	var lengths []float64
	var faces []int
	var containment []float64
	var distances []float64
	for _, field := range strings.Split(fractions, ",") {
		frac, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		essentials.Must(err)
		length := frac * input.Length()
		log.Printf("Remeshing with target length %f...", length)

		remesher, err := filters.NewRemesher(filters.RemeshOptions{
			TargetLength: length,
			ProtectAngle: filters.DefaultRemeshOptions().ProtectAngle,
			Iterations:   iterations,
		})
		essentials.Must(err)
		out, err := remesher.Run(&filters.Request{Input: input})
		essentials.Must(err)

		outMesh := out.Data.Mesh()
		outSolid := model3d.NewColliderSolid(model3d.MeshToCollider(outMesh))
		mismatches := make([]int, numSamples)
		essentials.ConcurrentMap(0, numSamples, func(i int) {
			if outSolid.Contains(points[i]) != values[i] {
				mismatches[i] = 1
			}
		})
		var totalMismatch int
		for _, m := range mismatches {
			totalMismatch += m
		}
		var totalDist float64
		for _, p := range out.Data.Points {
			totalDist += math.Abs(meshField.SDF(p))
		}

		lengths = append(lengths, length)
		faces = append(faces, len(out.Data.Polys))
		containment = append(containment, float64(totalMismatch)/float64(numSamples))
		distances = append(distances, totalDist/float64(out.Data.NumPoints()))
	}

	log.Printf("Lengths: %v", JSONString(lengths))
	log.Printf("Faces: %v", JSONString(faces))
	log.Printf("Containment error: %v", JSONString(containment))
	log.Printf("Mean distance: %v", JSONString(distances))
}

func JSONString(x any) string {
	data, err := json.Marshal(x)
	essentials.Must(err)
	return string(data)
}
