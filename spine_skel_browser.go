package main

import (
	"flag"
	"log"

	"github.com/mogaika/spine_skel_browser/config"
	"github.com/mogaika/spine_skel_browser/web"
)

func main() {
	var addr, dir string
	var scale float64
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to folder with skel and atlas files")
	flag.Float64Var(&scale, "scale", 1.0, "Position scale applied to decoded coordinates")
	flag.Parse()

	if dir == "" {
		flag.PrintDefaults()
		return
	}

	config.SetScale(float32(scale))

	if err := web.StartServer(addr, dir, "web"); err != nil {
		log.Fatal(err)
	}
}
