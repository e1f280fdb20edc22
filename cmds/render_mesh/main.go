package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

func main() {
	var gridSize int
	var imageSize int
	var fps float64
	var frames int
	var fieldName string
	flag.IntVar(&gridSize, "grid-size", 3, "grid size (used for rows and columns)")
	flag.IntVar(&imageSize, "image-size", 300, "size of each image in the grid")
	flag.Float64Var(&fps, "fps", 10.0, "FPS for GIF outputs")
	flag.IntVar(&frames, "frames", 20, "total number of frames for GIF outputs")
	flag.StringVar(&fieldName, "field", "", "optional scalar point field used to color the mesh")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: render_mesh [flags] <input> <output.png>")
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

	log.Println("Loading mesh...")
	data, err := host.LoadPolyData(inputPath)
	essentials.Must(err)
	if len(data.Polys) == 0 {
		essentials.Die("Input has no polygons to render.")
	}

	log.Println("Creating renderable object...")
	collider := model3d.MeshToCollider(data.Mesh())
	var colorFunc render3d.ColorFunc
	if fieldName != "" {
		log.Println(" - Mapping field to colors...")
		colorFunc = FieldColors(data, fieldName)
	}
	object := render3d.Objectify(collider, colorFunc)

	log.Println("Rendering...")
	ext := filepath.Ext(outputPath)
	if strings.ToLower(ext) == ".gif" {
		essentials.Must(
			render3d.SaveRotatingGIF(
				outputPath,
				object,
				model3d.Z(1),
				model3d.YZ(-1, 0.1).Normalize(),
				imageSize,
				frames,
				fps,
				nil,
			),
		)
	} else {
		essentials.Must(
			render3d.SaveRandomGrid(outputPath, object, gridSize, gridSize, imageSize, nil),
		)
	}
}

// FieldColors shades each point from blue to red according to the value of
// the nearest point's field.
func FieldColors(data *host.PolyData, name string) render3d.ColorFunc {
	field := data.PointArray(name)
	if field == nil || field.Components != 1 {
		essentials.Die("No scalar point field named:", name)
	}
	min, max := field.Values[0], field.Values[0]
	for _, x := range field.Values {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	scale := max - min
	if scale == 0 {
		scale = 1
	}
	index := mesh.NewPointIndex(data.Points)
	return func(c model3d.Coord3D, rc model3d.RayCollision) render3d.Color {
		nearest, _ := index.Nearest(c)
		frac := (field.Values[nearest] - min) / scale
		return render3d.NewColorRGB(frac, 0.2, 1-frac)
	}
}
