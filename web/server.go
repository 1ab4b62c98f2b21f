package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// ServerDirectory is the directory the handlers read skeleton and atlas
// files from.
var ServerDirectory string

func StartServer(addr string, dir string, webPath string) error {
	ServerDirectory = dir

	r := mux.NewRouter()
	r.HandleFunc("/json/skel", HandlerListFiles)
	r.HandleFunc("/json/skel/{file}/diagnostics", HandlerSkelDiagnostics)
	r.HandleFunc("/json/skel/{file}", HandlerSkelJson)
	r.HandleFunc("/json/atlas/{file}", HandlerAtlasJson)
	r.HandleFunc("/dump/skel/{file}/gltf/{skin}", HandlerSkelGLTF)
	r.HandleFunc("/dump/skel/{file}", HandlerSkelJsonDump)
	r.HandleFunc("/ws/status", HandlerWebsocketStatus)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
