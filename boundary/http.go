// Package boundary holds the external-facing adapters the protocol core
// never talks to directly: the HTTP JSON API and the MQTT bridge. Both
// call through a Supervisor and never touch the Transport.
package boundary

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/spirilis/pima-adapter"
)

// Supervisor is the subset of pima.Supervisor the HTTP server depends on.
type Supervisor interface {
	CurrentStatus() *pima.StatusRecord
	Arm(mode pima.ArmMode, partitions []int) (*pima.StatusRecord, error)
}

// HTTPServer exposes GET /pima/status and POST /pima/arm, both guarded by
// an api_key query parameter.
type HTTPServer struct {
	Supervisor Supervisor
	APIKey     string
	Logger     *log.Logger
}

// NewHTTPServer builds an HTTPServer bound to sup, authenticating requests
// against apiKey.
func NewHTTPServer(sup Supervisor, apiKey string, logger *log.Logger) *HTTPServer {
	if logger == nil {
		logger = log.Default()
	}
	return &HTTPServer{Supervisor: sup, APIKey: apiKey, Logger: logger}
}

// Handler returns the http.Handler implementing the /pima/* surface.
func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pima/status", h.handleStatus)
	mux.HandleFunc("/pima/arm", h.handleArm)
	return mux
}

func (h *HTTPServer) authorized(r *http.Request) bool {
	return r.URL.Query().Get("api_key") == h.APIKey
}

func (h *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, h.Supervisor.CurrentStatus())
}

// armRequest is the JSON body accepted by POST /pima/arm and the MQTT
// <topic>/command message.
type armRequest struct {
	Mode       string `json:"mode"`
	Partitions []int  `json:"partitions"`
}

func (h *HTTPServer) handleArm(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req armRequest
	if r.Body == nil {
		http.Error(w, `{"error":"missing body"}`, http.StatusBadRequest)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"missing body"}`, http.StatusBadRequest)
		return
	}
	if len(req.Partitions) == 0 {
		req.Partitions = []int{1}
	}

	mode, err := pima.ParseArmMode(req.Mode)
	if err != nil {
		http.Error(w, `{"error":"Invalid arm mode"}`, http.StatusNotImplemented)
		return
	}

	rec, err := h.Supervisor.Arm(mode, req.Partitions)
	if err != nil {
		h.Logger.Printf("pima: http arm failed: %v", err)
		http.Error(w, `{"error":"arm failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
