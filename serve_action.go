// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/tgulacsi/imgpdf/converter"
)

func serveCmd() *ffcli.Command {
	var savereq bool
	fs := newFlagSet("serve")
	fs.BoolVar(&savereq, "savereq", false, "save requests")
	return &ffcli.Command{
		Name: "serve", ShortHelp: "serve the HTTP upload form",
		ShortUsage: "imgpdf serve [flags] [addr.to.listen.on:port]", FlagSet: fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				listenAddr = args[0]
			}
			listeners := getListeners()
			if listenAddr == "" && len(listeners) == 0 {
				listenAddr = *converter.ConfListenAddr
			}
			logger.Info("serve", "listeners", len(listeners), "listenAddr", listenAddr)

			grp, grpCtx := errgroup.WithContext(ctx)
			// construct all servers up front, the goroutines only serve
			srvs := make([]*http.Server, 0, len(listeners)+1)
			if listenAddr != "" {
				s := newHTTPServer(listenAddr, savereq)
				srvs = append(srvs, s)
				grp.Go(func() error {
					logger.Info("listening", "address", listenAddr)
					return s.ListenAndServe()
				})
			}
			for _, l := range listeners {
				l := l
				s := newHTTPServer("", savereq)
				srvs = append(srvs, s)
				grp.Go(func() error {
					logger.Info("listening", "listener", l)
					return s.Serve(l)
				})
			}
			<-grpCtx.Done()
			for _, l := range listeners {
				l.Close()
			}
			for _, s := range srvs {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				_ = s.Shutdown(ctx)
				cancel()
				_ = s.Close()
			}
			return grp.Wait()
		},
	}
}
