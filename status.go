// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/kardianos/osext"
	"github.com/tgulacsi/go/version"
)

type statInfo struct {
	last               time.Time
	mem                *runtime.MemStats
	startedAt, version string
	mtx                sync.Mutex
}

var stats = new(statInfo)
var onceOnStart = new(sync.Once)

func onStart() {
	var err error
	if self, err = osext.Executable(); err != nil {
		logger.Error(err, "error getting the path for self")
	} else {
		var self2 string
		if self2, err = filepath.Abs(self); err != nil {
			logger.Error(err, "error getting the absolute path", "for", self)
		} else {
			self = self2
		}
	}

	stats.startedAt = time.Now().Format(time.RFC3339)

	http.DefaultServeMux.Handle("/", http.HandlerFunc(statusPage))
}

// fill fills the stat iff the current one is stale
func (st *statInfo) fill() {
	st.mtx.Lock()
	defer st.mtx.Unlock()

	now := time.Now()
	if st.mem == nil {
		st.mem = new(runtime.MemStats)
		st.version = runtime.Version()
	} else if now.Sub(st.last) <= 5*time.Second {
		return
	}
	st.last = now
	runtime.ReadMemStats(st.mem)
}

func statusPage(w http.ResponseWriter, r *http.Request) {
	if r.RequestURI == "/favicon.ico" {
		http.Error(w, "", 404)
		return
	}
	stats.fill()
	w.Header().Add("Content-Type", "text/html")
	w.WriteHeader(200)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
  <head><title>Imgpdf</title></head>
  <body>
    <h1>Imgpdf</h1>
    <p>%s</p>
    <p>%s compiled with Go version %s</p>
    <p>%d started at %s<br/>
    Allocated: %.03fMb (Sys: %.03fMb)</p>

    <p><a href="/convert">Upload form</a></p>
    <p><a href="/_admin/stop">Stop</a> (hopefully the supervisor will restart it).</p>
  </body>
</html>`,
		version.Main(),
		self, stats.version,
		os.Getpid(), stats.startedAt,
		float64(stats.mem.Alloc)/1024/1024, float64(stats.mem.Sys)/1024/1024)
}
