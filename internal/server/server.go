// Package server exposes the page builder over HTTP: a JSON editor API,
// the published storefront pages, and a WebSocket channel that pushes
// re-rendered markup to open editors.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/funnelforge/funnelforge"
	"github.com/funnelforge/funnelforge/internal/config"
	"github.com/funnelforge/funnelforge/internal/elements"
	"github.com/funnelforge/funnelforge/internal/storage"
)

// Server routes editor and storefront traffic for a page store.
type Server struct {
	cfg      *config.Config
	store    storage.Store
	registry *funnelforge.Registry

	mu       sync.Mutex
	sessions map[string]*session // pageID -> live editing session

	connMu      sync.RWMutex
	connections map[*wsClient]bool

	httpServer *http.Server
	watcher    *Watcher
	rlDone     <-chan struct{}
	rlCancel   context.CancelFunc
}

// session is the live editing state for one page.
type session struct {
	editor *funnelforge.Editor
}

// New creates a server around a store and the built-in element registry.
func New(cfg *config.Config, store storage.Store) *Server {
	reg := funnelforge.NewRegistry()
	elements.RegisterBundles(reg)

	return &Server{
		cfg:         cfg,
		store:       store,
		registry:    reg,
		sessions:    make(map[string]*session),
		connections: make(map[*wsClient]bool),
	}
}

// Registry exposes the element registry, mainly for tests.
func (s *Server) Registry() *funnelforge.Registry { return s.registry }

// Handler builds the full middleware-wrapped HTTP handler.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/pages", s.handleListPages)
	mux.HandleFunc("GET /api/pages/{id}", s.handleGetPage)
	mux.HandleFunc("PUT /api/pages/{id}", s.handlePutPage)
	mux.HandleFunc("DELETE /api/pages/{id}", s.handleDeletePage)
	mux.HandleFunc("POST /api/pages/{id}/ops", s.handleOps)
	mux.HandleFunc("GET /api/pages/{id}/edit", s.handleEditView)
	mux.HandleFunc("GET /p/{id}", s.handleStorefront)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	var handler http.Handler = mux

	rlCtx, cancel := context.WithCancel(ctx)
	s.rlCancel = cancel
	limit, done := RateLimitMiddleware(rlCtx,
		s.cfg.RateLimitRPS(), s.cfg.RateLimitBurst(), s.cfg.RateLimitMaxIPs())
	s.rlDone = done

	handler = limit(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = CORSMiddleware(s.cfg.Server.CORSOrigins)(handler)
	return handler
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Watch {
		watcher, err := NewWatcher(s.cfg.PagesDir(), s.onPageFileChanged)
		if err != nil {
			log.Printf("[Server] File watching disabled: %v", err)
		} else {
			s.watcher = watcher
			s.watcher.Start()
			log.Printf("[Watch] Watching %s for page changes", s.cfg.PagesDir())
		}
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.Handler(ctx),
	}

	log.Printf("[Server] Listening on http://%s", s.cfg.Addr())
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains connections and stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			log.Printf("[Server] Watcher stop: %v", err)
		}
	}
	s.closeAllConnections()
	if s.rlCancel != nil {
		s.rlCancel()
		<-s.rlDone
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// editorFor returns the live session for a page, loading the document
// from the store on first access.
func (s *Server) editorFor(ctx context.Context, pageID string) (*funnelforge.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[pageID]; ok {
		return sess.editor, nil
	}

	doc, err := s.store.Load(ctx, pageID)
	if err != nil {
		return nil, err
	}
	s.registry.PreloadDocument(ctx, doc)

	editor := funnelforge.NewEditor(doc)
	s.sessions[pageID] = &session{editor: editor}
	return editor, nil
}

// dropSession forgets the in-memory editing state for a page.
func (s *Server) dropSession(pageID string) {
	s.mu.Lock()
	delete(s.sessions, pageID)
	s.mu.Unlock()
}

// onPageFileChanged reloads the stored document when its file changes on
// disk and tells connected editors to refresh.
func (s *Server) onPageFileChanged(pageID string) {
	log.Printf("[Watch] Page changed on disk: %s", pageID)
	s.dropSession(pageID)
	s.broadcast(pageID, wsMessage{Action: "reload", PageID: pageID})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		log.Printf("[Server] List pages: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": ids})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	editor, err := s.editorFor(r.Context(), pageID)
	if err != nil {
		writeStoreError(w, pageID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       pageID,
		"document": editor.Document(),
	})
}

func (s *Server) handlePutPage(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	if !storage.ValidPageID(pageID) {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid page id %q", pageID))
		return
	}

	var doc funnelforge.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid document JSON")
		return
	}

	if problems := funnelforge.Validate(&doc); len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.Error()
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "document failed validation",
			"problems": msgs,
		})
		return
	}

	if err := s.store.Save(r.Context(), pageID, &doc); err != nil {
		log.Printf("[Server] Save page %s: %v", pageID, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to save page")
		return
	}
	s.dropSession(pageID)
	writeJSON(w, http.StatusOK, map[string]string{"id": pageID, "status": "saved"})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	if err := s.store.Delete(r.Context(), pageID); err != nil {
		writeStoreError(w, pageID, err)
		return
	}
	s.dropSession(pageID)
	writeJSON(w, http.StatusOK, map[string]string{"id": pageID, "status": "deleted"})
}

// editOp is one editor operation submitted by the builder UI.
type editOp struct {
	Op          string         `json:"op"`
	ID          string         `json:"id,omitempty"`
	ElementType string         `json:"elementType,omitempty"`
	TargetPath  string         `json:"targetPath,omitempty"`
	Updates     map[string]any `json:"updates,omitempty"`
	SectionID   string         `json:"sectionId,omitempty"`
	RowID       string         `json:"rowId,omitempty"`
	ColumnID    string         `json:"columnId,omitempty"`
	Index       int            `json:"index,omitempty"`
	Device      string         `json:"device,omitempty"`
	Preview     bool           `json:"preview,omitempty"`
}

// opsRequest carries a batch of operations applied in order.
type opsRequest struct {
	Ops []editOp `json:"ops"`
}

// opsResponse reports the editor state after the batch, plus the
// re-rendered page for the editor's current device.
type opsResponse struct {
	Applied  int                       `json:"applied"`
	CanUndo  bool                      `json:"canUndo"`
	CanRedo  bool                      `json:"canRedo"`
	Selected *funnelforge.SelectedNode `json:"selected,omitempty"`
	Device   funnelforge.Device        `json:"device"`
	HTML     string                    `json:"html"`
}

func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	editor, err := s.editorFor(r.Context(), pageID)
	if err != nil {
		writeStoreError(w, pageID, err)
		return
	}

	var req opsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid ops JSON")
		return
	}
	if len(req.Ops) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no operations provided")
		return
	}

	applied := 0
	for _, op := range req.Ops {
		ok, err := s.applyOp(r.Context(), editor, op)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if ok {
			applied++
		}
	}

	if err := s.store.Save(r.Context(), pageID, editor.Document()); err != nil {
		log.Printf("[Server] Autosave page %s: %v", pageID, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to save page")
		return
	}

	resp := s.editorState(editor, applied)
	writeJSON(w, http.StatusOK, resp)

	s.broadcast(pageID, wsMessage{
		Action:  "update",
		PageID:  pageID,
		HTML:    resp.HTML,
		CanUndo: resp.CanUndo,
		CanRedo: resp.CanRedo,
	})
}

// applyOp dispatches one operation. The bool reports whether the
// operation changed or touched editor state; an error means the request
// itself was malformed.
func (s *Server) applyOp(ctx context.Context, editor *funnelforge.Editor, op editOp) (bool, error) {
	switch op.Op {
	case "add":
		if op.ElementType != "" {
			if err := s.registry.EnsureLoaded(ctx, op.ElementType); err != nil {
				log.Printf("[Server] Bundle load for %q: %v", op.ElementType, err)
			}
		}
		_, ok := editor.AddNode(op.ElementType, op.TargetPath)
		return ok, nil
	case "update":
		if op.ID == "" {
			return false, fmt.Errorf("update: id is required")
		}
		return editor.UpdateNode(op.ID, op.Updates), nil
	case "remove":
		if op.ID == "" {
			return false, fmt.Errorf("remove: id is required")
		}
		return editor.RemoveNode(op.ID), nil
	case "move":
		if op.ID == "" {
			return false, fmt.Errorf("move: id is required")
		}
		return editor.MoveElement(op.ID, op.SectionID, op.RowID, op.ColumnID, op.Index), nil
	case "undo":
		return editor.Undo(), nil
	case "redo":
		return editor.Redo(), nil
	case "select":
		editor.Select(op.ID)
		return true, nil
	case "set-device":
		d := funnelforge.Device(op.Device)
		switch d {
		case funnelforge.DeviceDesktop, funnelforge.DeviceTablet, funnelforge.DeviceMobile:
			editor.SetDevice(d)
			return true, nil
		}
		return false, fmt.Errorf("set-device: unknown device %q", op.Device)
	case "set-preview":
		editor.SetPreviewMode(op.Preview)
		return true, nil
	default:
		return false, fmt.Errorf("unknown operation %q", op.Op)
	}
}

// editorState renders the current document for the editor device and
// packages the undo/redo flags.
func (s *Server) editorState(editor *funnelforge.Editor, applied int) opsResponse {
	mode := funnelforge.ModeEdit
	if editor.PreviewMode() {
		mode = funnelforge.ModeLive
	}
	renderer := funnelforge.NewRenderer(s.registry, mode)
	return opsResponse{
		Applied:  applied,
		CanUndo:  editor.CanUndo(),
		CanRedo:  editor.CanRedo(),
		Selected: editor.Selected(),
		Device:   editor.Device(),
		HTML:     renderer.RenderDocument(editor.Document(), editor.Device()),
	}
}

func (s *Server) handleEditView(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	editor, err := s.editorFor(r.Context(), pageID)
	if err != nil {
		writeStoreError(w, pageID, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editorState(editor, 0))
}

func (s *Server) handleStorefront(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	doc, err := s.store.Load(r.Context(), pageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("[Server] Load page %s: %v", pageID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.registry.PreloadDocument(r.Context(), doc)

	device := storefrontDevice(r)

	renderer := funnelforge.NewRenderer(s.registry, funnelforge.ModeLive)
	body := renderer.RenderDocument(doc, device)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body>
%s
</body>
</html>
`, html.EscapeString(pageTitle(s.cfg, pageID)), body)
}

// storefrontDevice picks the render device: an explicit ?device= query
// wins, then the client-hint viewport width, then desktop.
func storefrontDevice(r *http.Request) funnelforge.Device {
	if q := r.URL.Query().Get("device"); q != "" {
		if d := funnelforge.Device(q); d.Valid() {
			return d
		}
	}
	if hint := r.Header.Get("Sec-CH-Viewport-Width"); hint != "" {
		if px, err := strconv.Atoi(hint); err == nil && px > 0 {
			return funnelforge.DeviceForWidth(px)
		}
	}
	return funnelforge.DeviceDesktop
}

func pageTitle(cfg *config.Config, pageID string) string {
	if cfg.Title != "" {
		return cfg.Title
	}
	return pageID
}

func writeStoreError(w http.ResponseWriter, pageID string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("page %q not found", pageID))
		return
	}
	log.Printf("[Server] Store error for page %s: %v", pageID, err)
	writeJSONError(w, http.StatusInternalServerError, "storage error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
