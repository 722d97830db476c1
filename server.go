// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httputil"
	_ "net/http/pprof"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/UNO-SOFT/otel"
	"github.com/VictoriaMetrics/metrics"
	"github.com/go-logr/logr"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/tgulacsi/imgpdf/converter"
)

var self = ""

// uploads above this size are refused outright
const maxUploadSize = 1 << 28

// newHTTPServer returns a new, stoppable HTTP server
func newHTTPServer(address string, saveReq bool) *http.Server {
	onceOnStart.Do(onStart)

	beforeFuncs := defaultBeforeFuncs
	if saveReq {
		beforeFuncs = append(beforeFuncs[:len(beforeFuncs):len(beforeFuncs)], dumpRequest)
	}
	imageConvertServer := kithttp.NewServer(
		imageConvertEP,
		imageConvertDecode,
		imageConvertEncode,
		kithttp.ServerBefore(beforeFuncs...),
		kithttp.ServerAfter(kithttp.SetContentType("application/pdf")),
		kithttp.ServerErrorEncoder(encodeConvertError),
	)

	var mux http.ServeMux
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) { metrics.WritePrometheus(w, true) })

	H := func(path string, handleFunc http.HandlerFunc) {
		mName := fmt.Sprintf("request_duration_seconds{method=%%q,handler=%q}", strings.Replace(path[1:], "/", "_", -1))
		mGet := metrics.GetOrCreateHistogram(fmt.Sprintf(mName, "GET"))
		mPost := metrics.GetOrCreateHistogram(fmt.Sprintf(mName, "POST"))
		mux.HandleFunc(
			path,
			func(w http.ResponseWriter, r *http.Request) {
				var mDur *metrics.Histogram
				switch r.Method {
				case "GET":
					mDur = mGet
				case "POST":
					mDur = mPost
				default:
					mDur = metrics.GetOrCreateHistogram(fmt.Sprintf(mName, r.Method))
				}
				start := time.Now()
				handleFunc.ServeHTTP(w, r)
				mDur.UpdateDuration(start)
			},
		)
	}
	H("/convert", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, uploadForm)
			return
		}
		imageConvertServer.ServeHTTP(w, r)
	})
	mux.Handle("/_admin/stop", http.HandlerFunc(adminStopHandler))
	mux.Handle("/", http.DefaultServeMux)

	tp, err := otel.LogTraceProvider(kvLog)
	if err != nil {
		panic(err)
	}
	otel.SetGlobalTraceProvider(tp)

	return &http.Server{
		Addr:         address,
		ReadTimeout:  300 * time.Second,
		WriteTimeout: 1800 * time.Second,
		Handler:      otel.HTTPMiddleware(otel.GlobalTracer("imgpdf"), &mux),
	}
}

const uploadForm = `<!DOCTYPE html>
<html>
  <head><title>imgpdf</title></head>
  <body>
    <h1>Convert an image to PDF</h1>
    <form method="POST" enctype="multipart/form-data" action="/convert">
      <input type="file" name="image" accept="image/*" required>
      <button type="submit">Convert</button>
    </form>
  </body>
</html>
`

func kvLog(keyvals ...interface{}) error {
	logger.WithName("otel").Info("trace", keyvals...)
	return nil
}

var defaultBeforeFuncs = []kithttp.RequestFunc{prepareContext}

func prepareContext(ctx context.Context, r *http.Request) context.Context {
	ctx = converter.ContextWithRequestID(ctx)
	lgr := logger.WithValues(
		"reqid", converter.GetRequestID(ctx),
		"path", r.URL.Path,
		"method", r.Method,
	)
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		lgr = lgr.WithValues("ip", host)
	}
	lgr.V(1).Info("ACCEPT", "uri", r.RequestURI, "remote", r.RemoteAddr)
	return logr.NewContext(ctx, lgr)
}

var reqSeq uint64

func dumpRequest(ctx context.Context, req *http.Request) context.Context {
	if req == nil {
		return ctx
	}
	lgr := getLogger(ctx).WithName("dumpRequest")
	b, err := httputil.DumpRequest(req, true)
	if err != nil {
		lgr.Error(err, "dumping request")
	}
	fn := fmt.Sprintf("%s%06d.dmp",
		filepath.Join(converter.Workdir, time.Now().Format("20060102_150405")+"-"),
		atomic.AddUint64(&reqSeq, 1))
	if err = os.WriteFile(fn, b, 0660); err != nil {
		lgr.Error(err, "writing", "dumpfile", fn)
	} else {
		lgr.Info("request has been dumped", "file", fn)
	}
	return ctx
}

func adminStopHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Refresh", "3;URL=/")
	w.WriteHeader(200)
	fmt.Fprintf(w, `Stopping...`)
	go func() {
		time.Sleep(time.Millisecond * 500)
		logger.Info("SUICIDE for ask!")
		os.Exit(3)
	}()
}

type imageConvertRequest struct {
	Data     []byte
	Filename string
}

type imageConvertResponse struct {
	PDF      []byte
	Filename string
}

type convertError struct {
	Outcome converter.Outcome
}

func (e *convertError) Error() string { return e.Outcome.Message }

func imageConvertDecode(ctx context.Context, r *http.Request) (interface{}, error) {
	f, err := getOneRequestFile(ctx, r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxUploadSize {
		return nil, errors.New("image too large")
	}
	return imageConvertRequest{Data: b, Filename: f.FileHeader.Filename}, nil
}

func imageConvertEP(ctx context.Context, request interface{}) (interface{}, error) {
	req := request.(imageConvertRequest)
	pdfBytes, outcome := converter.ConvertBytes(ctx, req.Data)
	if !outcome.OK {
		getLogger(ctx).Info("convert failed", "category", outcome.Category, "message", outcome.Message)
		return nil, &convertError{Outcome: outcome}
	}
	return imageConvertResponse{PDF: pdfBytes, Filename: req.Filename}, nil
}

func imageConvertEncode(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(imageConvertResponse)
	fn := baseName(resp.Filename)
	if ext := filepath.Ext(fn); ext != "" {
		fn = fn[:len(fn)-len(ext)]
	}
	if fn == "" {
		fn = "image"
	}
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": fn + ".pdf"}))
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.PDF)))
	_, err := w.Write(resp.PDF)
	return err
}

func encodeConvertError(ctx context.Context, err error, w http.ResponseWriter) {
	code := http.StatusBadRequest
	var ce *convertError
	if errors.As(err, &ce) {
		switch ce.Outcome.Category {
		case converter.CategoryCorrupt, converter.CategoryEmbedError:
			code = http.StatusUnprocessableEntity
		default:
			code = http.StatusInternalServerError
		}
	}
	http.Error(w, err.Error(), code)
}

type reqFile struct {
	io.ReadCloser
	multipart.FileHeader
}

// getOneRequestFile reads the first file from the request (if multipart/),
// or returns the body if not
func getOneRequestFile(ctx context.Context, r *http.Request) (reqFile, error) {
	if r == nil {
		return reqFile{}, errors.New("empty request")
	}
	f := reqFile{ReadCloser: r.Body}
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/") {
		f.FileHeader.Header = textproto.MIMEHeader(r.Header)
		_, params, _ := mime.ParseMediaType(r.Header.Get("Content-Disposition"))
		f.FileHeader.Filename = params["filename"]
		return f, nil
	}
	defer r.Body.Close()
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return f, fmt.Errorf("error parsing request as multipart-form: %w", err)
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File) == 0 {
		return f, errors.New("no files?")
	}
	defer r.MultipartForm.RemoveAll()

	for _, fileHeaders := range r.MultipartForm.File {
		for _, fileHeader := range fileHeaders {
			var err error
			if f.ReadCloser, err = fileHeader.Open(); err != nil {
				return f, fmt.Errorf("error opening part %q: %w", fileHeader.Filename, err)
			}
			if fileHeader != nil {
				f.FileHeader = *fileHeader
				return f, nil
			}
		}
	}
	return f, nil
}

func baseName(fileName string) string {
	if fileName == "" {
		return ""
	}
	if i := strings.LastIndexAny(fileName, "/\\"); i >= 0 {
		fileName = fileName[i+1:]
	}
	return fileName
}

func getLogger(ctx context.Context) logr.Logger {
	if lgr, err := logr.FromContext(ctx); err == nil {
		return lgr
	}
	return logger
}
