package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/geraldgg/helioselene/internal/metrics"
	"github.com/geraldgg/helioselene/internal/predict"
	"github.com/geraldgg/helioselene/internal/tle"
)

const maxRequestBody = 1 << 20

// errorBody is the structured error response: a stable code plus a human
// message.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// transitsHandler runs one prediction per request. The request may carry TLE
// lines directly or name a catalog satellite to use the service's current
// element set.
func (s *Server) transitsHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "reading request body")
		return
	}

	req, err := predict.DecodeRequest(data)
	if err != nil {
		var verr *predict.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Code, verr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	// A named satellite without explicit TLE lines uses the live dataset.
	if req.TLELine1 == "" && req.SatelliteName != "" {
		sat, ok := tle.ByName(req.SatelliteName)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown_satellite", "satellite "+req.SatelliteName+" is not in the catalog")
			return
		}
		entry, ok := s.store.Lookup(sat.NoradID)
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "tle_unavailable", "no current element set for "+sat.Name)
			return
		}
		req.TLELine1 = entry.Line1
		req.TLELine2 = entry.Line2
		req.SatelliteName = sat.Name
	}

	start := time.Now()
	events, err := predict.Run(r.Context(), req)
	if err != nil {
		var verr *predict.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Code, verr.Message)
			return
		}
		s.logger.Error("prediction failed", "error", err)
		writeError(w, http.StatusInternalServerError, predict.CodePropagationFailed, err.Error())
		return
	}
	metrics.ObservePrediction(time.Since(start))
	for _, ev := range events {
		metrics.CountEvent(ev.Kind.String(), ev.Body.String())
	}

	out, err := predict.Encode(events)
	if err != nil {
		s.logger.Error("encoding events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "encoding_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

// satellitesHandler lists the tracked catalog.
func (s *Server) satellitesHandler(w http.ResponseWriter, r *http.Request) {
	type satInfo struct {
		Name    string `json:"name"`
		NoradID int    `json:"norad_id"`
		HasTLE  bool   `json:"has_tle"`
	}
	out := make([]satInfo, 0, len(tle.Catalog))
	for _, sat := range tle.Catalog {
		_, ok := s.store.Lookup(sat.NoradID)
		out = append(out, satInfo{Name: sat.Name, NoradID: sat.NoradID, HasTLE: ok})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// tleHandler returns the current element set for one catalog number.
func (s *Server) tleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("norad_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "norad_id must be an integer")
		return
	}
	entry, ok := s.store.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "tle_unavailable", "no element set for "+strconv.Itoa(id))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"norad_id": entry.NoradID,
		"name":     entry.Name,
		"epoch":    entry.Epoch.UTC().Format(time.RFC3339),
		"line1":    entry.Line1,
		"line2":    entry.Line2,
	})
}
