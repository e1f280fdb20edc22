package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/host"
)

func main() {
	var checkIntersections bool
	flag.BoolVar(&checkIntersections, "intersections", true, "search for self-intersections")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: mesh_info [flags] <input>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := args[0]

	log.Println("Loading mesh...")
	data, err := host.LoadPolyData(inputPath)
	essentials.Must(err)

	fmt.Println("Number of points:", data.NumPoints())
	fmt.Println("Number of polygons:", len(data.Polys))
	fmt.Println("Number of lines:", len(data.Lines))
	fmt.Println("Bounds:", data.Min(), data.Max())
	for _, arr := range data.PointData {
		fmt.Printf("Point field: %s (%d components)\n", arr.Name, arr.Components)
	}
	for _, arr := range data.CellData {
		fmt.Printf("Cell field: %s (%d components)\n", arr.Name, arr.Components)
	}

	surf, promotion := host.ToSurface(data)
	if !promotion.OK() {
		fmt.Println("Non-manifold polygons:", len(promotion.Failed))
	}
	if !promotion.Consistent {
		fmt.Println("Orientation: inconsistent")
	}
	_, numComponents := surf.FaceComponents()
	fmt.Println("Connected components:", numComponents)
	fmt.Println("Triangle mesh:", surf.IsTriangleMesh())
	fmt.Println("Boundary cycles:", len(surf.BoundaryCycles()))
	fmt.Println("Closed:", surf.IsClosed())
	if surf.IsClosed() {
		fmt.Println("Bounds volume:", surf.DoesBoundVolume())
		fmt.Println("Signed volume:", surf.SignedVolume())
	}
	if checkIntersections {
		log.Println("Searching for self-intersections...")
		fmt.Println("Self-intersecting face pairs:", len(surf.SelfIntersections()))
	}
}
