// Command poppygui opens the preview site and the host player in a desktop window.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	webview "github.com/webview/webview_go"

	"poppybuddy/internal/app"
	"poppybuddy/pkg/config"
)

func main() {
	// Webview requires main thread
	runtime.LockOSThread()

	// Relative paths in the config resolve against the executable directory
	exe, _ := os.Executable()
	if err := os.Chdir(filepath.Dir(exe)); err != nil {
		panic(err)
	}

	path := os.Getenv("POPPY_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}
	rt, err := app.Open(path, app.Options{Logging: true, Database: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	w := webview.New(true)
	defer w.Destroy()

	w.Init(`
		window.addEventListener('contextmenu', function(e) {
			e.preventDefault();
		}, true);
	`)

	w.SetTitle("Poppy and Buddy")
	w.SetSize(1024, 768, webview.HintNone)

	logProxy := func(msg string) {
		w.Dispatch(func() {
			w.Eval("window.addLogLine(" + escapeJS(msg) + ")")
		})
	}
	appProxy := func(url string) {
		w.Dispatch(func() {
			w.Eval("window.enableApp(" + escapeJS(url) + ")")
		})
	}
	shutdown := func() {
		w.Dispatch(w.Terminate)
	}

	mgr := NewManager(rt, logProxy, appProxy, shutdown)

	// The shell page is served locally so the webview treats it as same-origin with the preview
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	defer ln.Close()

	go func() {
		_ = http.Serve(ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(htmlContent))
		}))
	}()

	w.Navigate("http://" + ln.Addr().String())

	mgr.Start(context.Background())
	defer mgr.Stop()

	w.Run()
}

func escapeJS(s string) string {
	b, _ := json.Marshal(s)
	// json.Marshal returns "string", surrounding quotes included.
	return string(b)
}
