package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/spine_skel_browser/config"
	"github.com/mogaika/spine_skel_browser/skel"
	"github.com/mogaika/spine_skel_browser/utils"
)

// manifest describes a batch conversion run.
type manifest struct {
	Scale float32 `yaml:"scale"`
	Jobs  []struct {
		In   string `yaml:"in"`
		Out  string `yaml:"out"`
		Skin string `yaml:"skin"`
		GLTF string `yaml:"gltf"`
	} `yaml:"jobs"`
}

func convert(in, out string, indent, dump bool) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "Failed to read %q", in)
	}
	doc, err := skel.NewFromData(data)
	if err != nil {
		return errors.Wrapf(err, "Failed to decode %q", in)
	}
	for _, d := range doc.Diagnostics {
		log.Printf("[skel2json] %s: %v", in, d)
	}
	if dump {
		utils.LogDump(doc)
	}

	var js []byte
	if indent {
		js, err = json.MarshalIndent(doc, "", "  ")
	} else {
		js, err = json.Marshal(doc)
	}
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal %q", in)
	}

	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".json"
	}
	if out == "-" {
		_, err = os.Stdout.Write(append(js, '\n'))
		return err
	}
	if err := os.WriteFile(out, js, 0666); err != nil {
		return errors.Wrapf(err, "Failed to write %q", out)
	}
	log.Printf("[skel2json] %s -> %s", in, out)
	return nil
}

func exportGLTF(in, out, skin string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "Failed to read %q", in)
	}
	doc, err := skel.NewFromData(data)
	if err != nil {
		return errors.Wrapf(err, "Failed to decode %q", in)
	}
	if skin == "" {
		skin = config.DefaultSkinName
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", out)
	}
	defer f.Close()
	if err := doc.ExportGLTF(f, skin); err != nil {
		return errors.Wrapf(err, "Failed to export %q", in)
	}
	log.Printf("[skel2json] %s -> %s (skin %q)", in, out, skin)
	return nil
}

func runManifest(path string, indent, dump bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to read manifest %q", path)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return errors.Wrapf(err, "Failed to parse manifest %q", path)
	}
	if m.Scale != 0 {
		config.SetScale(m.Scale)
	}
	for _, job := range m.Jobs {
		if err := convert(job.In, job.Out, indent, dump); err != nil {
			return err
		}
		if job.GLTF != "" {
			if err := exportGLTF(job.In, job.GLTF, job.Skin); err != nil {
				return err
			}
		}
	}
	return nil
}

func main() {
	var in, out, manifestPath string
	var indent, dump bool
	var scale float64
	flag.StringVar(&in, "in", "", "Input skel file")
	flag.StringVar(&out, "out", "", "Output json file ('-' for stdout, default next to input)")
	flag.StringVar(&manifestPath, "manifest", "", "Yaml manifest with a batch of conversions")
	flag.BoolVar(&indent, "indent", false, "Indent json output")
	flag.BoolVar(&dump, "dump", false, "Dump the decoded document to the log")
	flag.Float64Var(&scale, "scale", 1.0, "Position scale applied to decoded coordinates")
	flag.Parse()

	config.SetScale(float32(scale))

	switch {
	case manifestPath != "":
		if err := runManifest(manifestPath, indent, dump); err != nil {
			log.Fatal(err)
		}
	case in != "":
		if err := convert(in, out, indent, dump); err != nil {
			log.Fatal(err)
		}
	default:
		flag.PrintDefaults()
	}
}
