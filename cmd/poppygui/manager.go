package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"poppybuddy/internal/app"
)

// Manager builds the site if needed and runs the preview server in-process.
type Manager struct {
	rt       *app.Runtime
	logFunc  func(string)
	appFunc  func(string)
	shutdown func()

	readyTimeout time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
}

func NewManager(rt *app.Runtime, log, appFn func(string), shutdown func()) *Manager {
	return &Manager{
		rt:           rt,
		logFunc:      log,
		appFunc:      appFn,
		shutdown:     shutdown,
		readyTimeout: 30 * time.Second,
	}
}

func (m *Manager) log(msg string) {
	if m.logFunc != nil {
		m.logFunc(msg)
	}
}

// Start runs the manager loop in the background until Stop.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	if p := m.rt.Config.Log.Server.Path; p != "" {
		go m.tailLog(ctx, p)
	}

	go func() {
		defer close(m.done)
		if err := m.run(ctx); err != nil {
			m.log(fmt.Sprintf("> Error: %v", err))
		}
	}()
}

// Stop shuts the server down and waits for it.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	fmt.Println("> Poppy and Buddy closing: shutting down server...")
	m.cancel()
	<-m.done
}

func (m *Manager) run(ctx context.Context) error {
	if m.needsBuild() {
		m.log("> Site not built yet. Building...")
		b, err := m.rt.Builder(app.BuildOptions{})
		if err != nil {
			return err
		}
		report, err := b.Build(ctx)
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		m.log(fmt.Sprintf("> Built %d pages in %s", report.Pages, report.Elapsed.Round(time.Millisecond)))
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	addr := ln.Addr().String()

	svc := m.rt.Kiosk()
	defer func() { _ = svc.Close() }()

	srv, err := m.rt.Server(addr, svc, m.shutdown)
	if err != nil {
		ln.Close()
		return err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- app.Serve(ctx, srv, ln) }()

	m.log("> Waiting for server...")
	url := "http://" + addr
	if err := m.waitReady(ctx, url); err != nil {
		return errors.Join(err, <-serveErr)
	}
	m.log("> Server ready!")
	if m.appFunc != nil {
		m.appFunc(url)
	}
	return <-serveErr
}

func (m *Manager) needsBuild() bool {
	_, err := os.Stat(filepath.Join(m.rt.Config.Site.OutputDir, "index.html"))
	return os.IsNotExist(err)
}

func (m *Manager) waitReady(ctx context.Context, url string) error {
	client := http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(m.readyTimeout)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/version", http.NoBody)
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return errors.New("server timed out")
}

func (m *Manager) tailLog(ctx context.Context, path string) {
	var file *os.File
	for file == nil {
		f, err := os.Open(path)
		if err == nil {
			file = f
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var pending string
	for {
		line, err := reader.ReadString('\n')
		pending += line
		if err != nil {
			if err != io.EOF {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		m.log(strings.TrimSpace(pending))
		pending = ""
	}
}
