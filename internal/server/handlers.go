// Package server handles HTTP requests and middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geolink/internal/extension"
	"github.com/woozymasta/geolink/internal/fault"
)

// extensionInfo describes one extension button.
type extensionInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	URL         string `json:"url"`
	Persist     bool   `json:"persist"`
	Selected    bool   `json:"selected"`
	RemoveHoles *bool  `json:"remove_holes,omitempty"`
}

// stateResponse is returned by every action endpoint.
type stateResponse struct {
	State       string `json:"state"`
	Selected    string `json:"selected,omitempty"`
	Cursor      string `json:"cursor"`
	// RemoveHoles is true when every extension supporting the toggle has it on.
	RemoveHoles bool   `json:"remove_holes"`
	Handled     *bool  `json:"handled,omitempty"`
}

// HandleExtensionsList serves the extensions and the selection state.
func (s *ServerContext) HandleExtensionsList(w http.ResponseWriter, r *http.Request) {
	_, selected := s.Manager.State()

	exts := s.Manager.Extensions()
	list := make([]extensionInfo, 0, len(exts))
	for _, ext := range exts {
		info := extensionInfo{
			Name:     ext.Name(),
			Kind:     ext.Kind(),
			URL:      ext.URL(),
			Persist:  ext.Persist(),
			Selected: selected != nil && selected == ext,
		}
		if enabled, ok := extension.RemovesHoles(ext); ok {
			info.RemoveHoles = &enabled
		}
		list = append(list, info)
	}

	writeJSON(w, http.StatusOK, struct {
		Name       string          `json:"name"`
		Extensions []extensionInfo `json:"extensions"`
		stateResponse
	}{
		Name:          s.Manager.Name(),
		Extensions:    list,
		stateResponse: s.state(),
	})
}

// HandleSelect toggles the selection of an extension.
func (s *ServerContext) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Manager.Select(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

// HandleClear removes the geometry of an extension.
func (s *ServerContext) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Clear(r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

// HandleClick forwards a map click to the selected extension.
func (s *ServerContext) HandleClick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be numbers", http.StatusBadRequest)
		return
	}

	handled, err := s.Manager.Click(r.Context(), orb.Point{x, y})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := s.state()
	resp.Handled = &handled
	writeJSON(w, http.StatusOK, resp)
}

// HandleRemoveHoles sets the remove-holes toggle.
func (s *ServerContext) HandleRemoveHoles(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		http.Error(w, "enabled must be a boolean", http.StatusBadRequest)
		return
	}
	s.Manager.SetRemoveHoles(enabled)
	writeJSON(w, http.StatusOK, s.state())
}

// HandleLayer serves the geometry of a layer as GeoJSON.
func (s *ServerContext) HandleLayer(w http.ResponseWriter, r *http.Request) {
	layer, ok := s.Host.Layer(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, err := layer.GeoJSON().MarshalJSON()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// HandlePanels serves every panel the extensions opened so far.
func (s *ServerContext) HandlePanels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Host.Panels())
}

// HandlePanel serves the state and content of a panel.
func (s *ServerContext) HandlePanel(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Host.PanelState(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleLinkedDrill crawls another linked-data node into the panel.
func (s *ServerContext) HandleLinkedDrill(w http.ResponseWriter, r *http.Request) {
	s.linkedAction(w, r, (*extension.Geoconnex).Drill)
}

// HandleLinkedData renders a data link of the crawl result on the map.
func (s *ServerContext) HandleLinkedData(w http.ResponseWriter, r *http.Request) {
	s.linkedAction(w, r, (*extension.Geoconnex).ShowData)
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *ServerContext) linkedAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(*extension.Geoconnex, context.Context, string) error,
) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		http.Error(w, "uri is required", http.StatusBadRequest)
		return
	}

	ext, ok := s.geoconnex(r.URL.Query().Get("extension"))
	if !ok {
		http.Error(w, "no linked-data extension", http.StatusNotFound)
		return
	}

	if err := action(ext, r.Context(), uri); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

// geoconnex picks the extension named name, else the selected Geoconnex
// extension, else the first one configured.
func (s *ServerContext) geoconnex(name string) (*extension.Geoconnex, bool) {
	if name != "" {
		ext, ok := s.Manager.Extension(name)
		if !ok {
			return nil, false
		}
		g, ok := ext.(*extension.Geoconnex)
		return g, ok
	}

	if _, selected := s.Manager.State(); selected != nil {
		if g, ok := selected.(*extension.Geoconnex); ok {
			return g, true
		}
	}
	for _, ext := range s.Manager.Extensions() {
		if g, ok := ext.(*extension.Geoconnex); ok {
			return g, true
		}
	}
	return nil, false
}

func (s *ServerContext) state() stateResponse {
	st, selected := s.Manager.State()
	resp := stateResponse{
		State:       st.String(),
		Cursor:      s.Host.Cursor(),
		RemoveHoles: s.Manager.RemoveHoles(),
	}
	if selected != nil {
		resp.Selected = selected.Name()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, extension.ErrUnknownExtension):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrPrecondition):
		status = http.StatusConflict
	case errors.Is(err, fault.ErrResourceNotFound),
		errors.Is(err, fault.ErrMalformedInput),
		errors.Is(err, fault.ErrConversion):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
