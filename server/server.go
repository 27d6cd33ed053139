// Package server is an HTTP service checking uploaded stream documents. Every
// request reads its own score from the stored document, so scores are never
// shared between requests.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vsariola/partitur/check"
	"github.com/vsariola/partitur/report"
	"github.com/vsariola/partitur/score"
	"github.com/vsariola/partitur/stream"
)

// MaxDocumentSize limits the size of uploaded documents.
const MaxDocumentSize = 8 << 20

type Server struct {
	Store          Store
	ReadOptions    stream.ReadOptions
	AllowedOrigins []string
	Logger         *log.Logger
	reporter       *report.Reporter
}

// New returns a server on store. A nil logger logs to the standard logger.
func New(store Store, opts stream.ReadOptions, origins []string, logger *log.Logger) (*Server, error) {
	r, err := report.New()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Store: store, ReadOptions: opts, AllowedOrigins: origins, Logger: logger, reporter: r}, nil
}

// Handler returns the routes wrapped in the CORS handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/scores", s.handleUpload).Methods("POST")
	router.HandleFunc("/scores/{id}", s.handleDelete).Methods("DELETE")
	router.HandleFunc("/scores/{id}/check", s.handleCheck).Methods("GET")
	router.HandleFunc("/scores/{id}/summary", s.handleSummary).Methods("GET")
	router.HandleFunc("/scores/{id}/listing", s.handleListing).Methods("GET")
	c := cors.New(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	})
	return c.Handler(router)
}

// ListenAndServe serves the handler on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.Logger.Printf("listening on %v", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxDocumentSize))
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}
	doc, err := stream.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := stream.Read(doc, s.ReadOptions); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	data, err := stream.MarshalJSON(doc)
	if err != nil {
		s.fail(w, err)
		return
	}
	id := uuid.New().String()
	if err := s.Store.Put(r.Context(), id, data); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load reads a fresh score from the stored document of the request.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*score.Score, bool) {
	data, err := s.Store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, err)
		return nil, false
	}
	doc, err := stream.UnmarshalJSON(data)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	sc, err := stream.Read(doc, s.ReadOptions)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return sc, true
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) (check.Report, bool) {
	sc, ok := s.load(w, r)
	if !ok {
		return check.Report{}, false
	}
	c := &check.Checker{UseGapRests: s.ReadOptions.UseGapRests, Logger: s.ReadOptions.Logger}
	return c.RunConsistencyCheck(sc, nil), true
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.check(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.check(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := rep.WriteSummary(w); err != nil {
		s.Logger.Printf("could not write summary: %v", err)
	}
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.reporter.Listing(w, sc); err != nil {
		s.Logger.Printf("could not write listing: %v", err)
	}
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.fail(w, err)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.Logger.Printf("internal error: %v", err)
	http.Error(w, fmt.Sprintf("internal error: %v", err), http.StatusInternalServerError)
}
