// Package apitest provides an in-process fake of the PDF merge service for tests.
//
// The fake keeps one file collection per session cookie and answers with the
// same JSON envelopes as the real service. Tests can inject failures and hold
// individual responses to reproduce latency races.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"

	"github.com/rescale/pdfmerge/internal/models"
)

// Operation names accepted by Fail, HoldNext and Calls.
const (
	OpSession  = "session"
	OpUpload   = "upload"
	OpRemove   = "remove_file"
	OpClear    = "clear"
	OpMerge    = "merge"
	OpDownload = "download"
)

// SessionCookie is the cookie name used to key server-side state.
const SessionCookie = "session"

// DefaultMaxFileSize mirrors the service's per-file limit.
const DefaultMaxFileSize = 50 * 1024 * 1024

// Failure describes an injected failure for one operation.
type Failure struct {
	// Status, when non-zero, is returned as the HTTP status. The body is
	// plain text unless Message is also set.
	Status int

	// Malformed returns a 200 response whose body is not JSON.
	Malformed bool

	// Message, unless Malformed is set, is returned as a structural
	// failure {"success": false, "message": Message}, with Status when
	// given and 200 otherwise.
	Message string

	// Once clears the failure after it fires.
	Once bool
}

// Gate holds one response until released.
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Arrived is closed once the held request has been processed and is waiting to respond.
func (g *Gate) Arrived() <-chan struct{} { return g.arrived }

// Release lets the held response be written. Safe to call more than once.
func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

type storedFile struct {
	desc models.FileDescriptor
	data []byte
}

// Server is a fake merge service.
type Server struct {
	*httptest.Server

	MaxFileSize int64

	mu       sync.Mutex
	sessions map[string][]storedFile
	merged   map[string][]byte
	failures map[string]Failure
	gates    map[string][]*Gate
	calls    map[string]int
	seq      int
}

// NewServer starts a fake merge service. Close it when done.
func NewServer() *Server {
	s := &Server{
		MaxFileSize: DefaultMaxFileSize,
		sessions:    make(map[string][]storedFile),
		merged:      make(map[string][]byte),
		failures:    make(map[string]Failure),
		gates:       make(map[string][]*Gate),
		calls:       make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /remove_file", s.handleRemove)
	mux.HandleFunc("POST /clear", s.handleClear)
	mux.HandleFunc("POST /merge", s.handleMerge)
	mux.HandleFunc("GET /download/{name}", s.handleDownload)

	s.Server = httptest.NewServer(mux)
	return s
}

// Fail injects a failure for op until cleared with Recover.
func (s *Server) Fail(op string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = f
}

// Recover clears an injected failure.
func (s *Server) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// HoldNext holds the response of the next request for op. State changes
// are applied before the hold, so the held response reflects the state at
// processing time.
func (s *Server) HoldNext(op string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.gates[op] = append(s.gates[op], g)
	s.mu.Unlock()
	return g
}

// Calls returns how many requests op has received.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Files returns the collection held for the only session, or for none
// when more than one session exists.
func (s *Server) Files() models.FileCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) != 1 {
		return models.FileCollection{}
	}
	for _, files := range s.sessions {
		return descriptors(files)
	}
	return models.FileCollection{}
}

// Seed places files into every existing session.
func (s *Server) Seed(files ...models.FileDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sid := range s.sessions {
		for _, f := range files {
			s.sessions[sid] = append(s.sessions[sid], storedFile{desc: f, data: []byte("%PDF-1.4\n")})
		}
	}
}

func descriptors(files []storedFile) models.FileCollection {
	out := make(models.FileCollection, len(files))
	for i, f := range files {
		out[i] = f.desc
	}
	return out
}

// begin counts the call and returns a pending failure, if any.
func (s *Server) begin(op string) (Failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	f, ok := s.failures[op]
	if ok && f.Once {
		delete(s.failures, op)
	}
	return f, ok
}

// hold blocks on the next gate for op, if one is registered.
func (s *Server) hold(op string, r *http.Request) bool {
	s.mu.Lock()
	var g *Gate
	if q := s.gates[op]; len(q) > 0 {
		g = q[0]
		s.gates[op] = q[1:]
	}
	s.mu.Unlock()

	if g == nil {
		return true
	}
	close(g.arrived)
	select {
	case <-g.release:
		return true
	case <-r.Context().Done():
		return false
	}
}

func writeFailure(w http.ResponseWriter, f Failure) {
	switch {
	case f.Status != 0 && f.Message != "":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.Status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": f.Message})
	case f.Status != 0:
		http.Error(w, http.StatusText(f.Status), f.Status)
	case f.Malformed:
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><body>Internal error</body></html>")
	default:
		writeJSON(w, map[string]interface{}{"success": false, "message": f.Message})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[c.Value]; !ok {
		return ""
	}
	return c.Value
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.begin(OpSession); ok {
		writeFailure(w, f)
		return
	}

	if s.sessionID(r) == "" {
		s.mu.Lock()
		s.seq++
		sid := fmt.Sprintf("sess%04d", s.seq)
		s.sessions[sid] = nil
		s.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: sid, Path: "/", HttpOnly: true})
	}

	w.Header().Set("Content-Type", "text/html")
	_, _ = io.WriteString(w, "<!doctype html><title>PDF Merger</title>")
}

func secureFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.begin(OpUpload); ok {
		writeFailure(w, f)
		return
	}

	sid := s.sessionID(r)
	if sid == "" {
		// The service indexes the session id while naming files and fails without one.
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, map[string]interface{}{"success": false, "message": "No files provided"})
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, map[string]interface{}{"success": false, "message": "No files provided"})
		return
	}

	var added []storedFile
	for _, fh := range headers {
		if !strings.EqualFold(path.Ext(fh.Filename), ".pdf") {
			continue
		}
		if fh.Size > s.MaxFileSize {
			writeJSON(w, map[string]interface{}{
				"success": false,
				"message": fmt.Sprintf("File %s is too large. Maximum size is 50MB.", fh.Filename),
			})
			return
		}
		file, err := fh.Open()
		if err != nil {
			writeJSON(w, map[string]interface{}{"success": false, "message": fmt.Sprintf("Error uploading %s: %v", fh.Filename, err)})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeJSON(w, map[string]interface{}{"success": false, "message": fmt.Sprintf("Error uploading %s: %v", fh.Filename, err)})
			return
		}

		name := secureFilename(fh.Filename)
		s.mu.Lock()
		s.seq++
		stored := fmt.Sprintf("%s_%06d_%s", sid, s.seq, name)
		s.mu.Unlock()

		added = append(added, storedFile{
			desc: models.FileDescriptor{StoredName: stored, OriginalName: name, Size: int64(len(data))},
			data: data,
		})
	}

	s.mu.Lock()
	s.sessions[sid] = append(s.sessions[sid], added...)
	files := descriptors(s.sessions[sid])
	s.mu.Unlock()

	if !s.hold(OpUpload, r) {
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"files":   files,
		"message": fmt.Sprintf("%d file(s) uploaded successfully", len(headers)),
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.begin(OpRemove); ok {
		writeFailure(w, f)
		return
	}

	var req models.RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sid := s.sessionID(r)
	s.mu.Lock()
	kept := make([]storedFile, 0, len(s.sessions[sid]))
	for _, f := range s.sessions[sid] {
		if f.desc.StoredName != req.StoredName {
			kept = append(kept, f)
		}
	}
	if sid != "" {
		s.sessions[sid] = kept
	}
	files := descriptors(kept)
	s.mu.Unlock()

	if !s.hold(OpRemove, r) {
		return
	}

	writeJSON(w, map[string]interface{}{"success": true, "files": files})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.begin(OpClear); ok {
		writeFailure(w, f)
		return
	}

	if sid := s.sessionID(r); sid != "" {
		s.mu.Lock()
		s.sessions[sid] = nil
		s.mu.Unlock()
	}

	if !s.hold(OpClear, r) {
		return
	}

	writeJSON(w, map[string]interface{}{"success": true, "message": "All files cleared"})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.begin(OpMerge); ok {
		writeFailure(w, f)
		return
	}

	sid := s.sessionID(r)
	s.mu.Lock()
	files := s.sessions[sid]
	if len(files) < 2 {
		s.mu.Unlock()
		writeJSON(w, map[string]interface{}{
			"success": false,
			"message": "Please upload at least 2 PDF files to merge",
		})
		return
	}

	var buf bytes.Buffer
	for _, f := range files {
		buf.Write(f.data)
	}
	s.seq++
	name := fmt.Sprintf("merged_%s_%06d.pdf", sid, s.seq)
	s.merged[name] = buf.Bytes()
	s.mu.Unlock()

	if !s.hold(OpMerge, r) {
		return
	}

	writeJSON(w, map[string]interface{}{
		"success":      true,
		"download_url": "/download/" + name,
		"message":      "PDFs merged successfully!",
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.begin(OpDownload); ok {
		writeFailure(w, f)
		return
	}

	s.mu.Lock()
	data, ok := s.merged[r.PathValue("name")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	if !s.hold(OpDownload, r) {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="merged_document.pdf"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	_, _ = w.Write(data)
}
