package web

import (
	"bytes"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mogaika/spine_skel_browser/atlas"
	"github.com/mogaika/spine_skel_browser/skel"
	"github.com/mogaika/spine_skel_browser/status"
	"github.com/mogaika/spine_skel_browser/webutils"
)

var documentCacheLock sync.Mutex
var documentCache = make(map[string]*skel.Document)

func loadDocument(file string) (*skel.Document, error) {
	// The route variable is a bare file name; anything with separators left
	// in it is a traversal attempt.
	file = filepath.Base(file)

	documentCacheLock.Lock()
	defer documentCacheLock.Unlock()
	if doc, ok := documentCache[file]; ok {
		return doc, nil
	}

	data, err := os.ReadFile(path.Join(ServerDirectory, file))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", file)
	}
	status.Info("Decoding %s", file)
	doc, err := skel.NewFromData(data)
	if err != nil {
		status.Error("Failed to decode %s: %v", file, err)
		return nil, errors.Wrapf(err, "Failed to decode %q", file)
	}
	for _, d := range doc.Diagnostics {
		status.Error("%s: %v", file, d)
	}
	documentCache[file] = doc
	return doc, nil
}

func HandlerListFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(ServerDirectory)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".skel", ".atlas":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	webutils.WriteJson(w, files)
}

func HandlerSkelJson(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	doc, err := loadDocument(file)
	if err != nil {
		log.Printf("[web] Error loading %q: %v", file, err)
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, doc)
}

func HandlerSkelDiagnostics(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	doc, err := loadDocument(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	// Empty list rather than null when the decode was clean.
	diags := doc.Diagnostics
	if diags == nil {
		diags = []skel.Diagnostic{}
	}
	webutils.WriteJson(w, diags)
}

func HandlerSkelJsonDump(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	doc, err := loadDocument(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJsonFile(w, doc, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
}

func HandlerSkelGLTF(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	skin := mux.Vars(r)["skin"]
	doc, err := loadDocument(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := doc.ExportGLTF(&buf, skin); err != nil {
		log.Printf("[web] Error exporting %q to gltf: %v", file, err)
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))+".glb")
}

func HandlerAtlasJson(w http.ResponseWriter, r *http.Request) {
	file := filepath.Base(mux.Vars(r)["file"])
	data, err := os.ReadFile(path.Join(ServerDirectory, file))
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	a, err := atlas.Parse(data)
	if err != nil {
		log.Printf("[web] Error parsing atlas %q: %v", file, err)
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, a)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
}

func HandlerWebsocketStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	status.NewClient(conn)
}
