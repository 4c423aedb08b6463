package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cod1ng-earth/splicenft/pkg/buildinfo"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
	"github.com/cod1ng-earth/splicenft/pkg/imagecodec"
	"github.com/cod1ng-earth/splicenft/pkg/pipeline"
	"github.com/cod1ng-earth/splicenft/pkg/receipt"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/seed"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

type networkHealth struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	State string `json:"catalog"`
}

type healthResponse struct {
	Status   string            `json:"status"`
	Build    buildinfo.Details `json:"build"`
	Networks []networkHealth   `json:"networks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Build: buildinfo.Get()}
	for _, n := range s.deps.Registry.Networks() {
		st, _ := s.deps.Registry.State(n.ID)
		resp.Networks = append(resp.Networks, networkHealth{ID: n.ID, Name: n.Name, State: st.String()})
	}
	writeJSON(w, http.StatusOK, resp)
}

type styleResponse struct {
	style.Style
	Palette []string `json:"palette,omitempty"`
	Program string   `json:"program"`
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	network, err := uintParam(r, "network")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	styles, err := s.deps.Registry.FetchCatalog(r.Context(), network)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]styleResponse, 0, len(styles))
	for _, st := range styles {
		out = append(out, styleResponse{Style: st, Palette: st.Palette.Hex(), Program: st.Program.Name()})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRender serves a generic preview of a style: grayscale at full
// randomness unless the query says otherwise.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	network, err := uintParam(r, "network")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	styleID, err := uintParam(r, "style")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.Options{Network: network, StyleID: styleID, Dim: s.deps.Dim, Palette: render.Grayscale}
	if err := applyQuery(r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Randomness == nil {
		full := 1.0
		opts.Randomness = &full
	}
	s.execute(w, r, opts)
}

func (s *Server) handleSplice(w http.ResponseWriter, r *http.Request) {
	network, err := uintParam(r, "network")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query().Get("style")
	if q == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidRequest, "style query parameter is required"))
		return
	}
	styleID, err := strconv.ParseUint(q, 10, 64)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidRequest, err, "style %q is not a number", q))
		return
	}
	opts := pipeline.Options{
		Network:    network,
		StyleID:    styleID,
		Collection: chi.URLParam(r, "collection"),
		TokenID:    chi.URLParam(r, "tokenid"),
		Dim:        s.deps.Dim,
	}
	if err := applyQuery(r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.execute(w, r, opts)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	opts.Logger = s.logger.With("request_id", requestID(r.Context()))
	res, err := s.deps.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := res.CID.String()
	w.Header().Set("Content-Type", imagecodec.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.Header().Set("ETag", `"`+id+`"`)
	w.Header().Set("X-Content-CID", id)
	w.Header().Set("X-Splice-Seed", strconv.FormatUint(uint64(res.Seed), 10))
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
	if match := r.Header.Get("If-None-Match"); match == `"`+id+`"` {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.PNG)
}

// applyQuery reads the optional seed, randomness, palette and refresh
// parameters.
func applyQuery(r *http.Request, opts *pipeline.Options) error {
	q := r.URL.Query()
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, err, "seed %q is not a 32-bit number", v)
		}
		s := uint32(n)
		opts.Seed = &s
	}
	if v := q.Get("randomness"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, err, "randomness %q is not a number", v)
		}
		opts.Randomness = &f
	}
	if v := q.Get("palette"); v != "" {
		p, err := render.ParsePalette(strings.Split(v, ","))
		if err != nil {
			return err
		}
		opts.Palette = p
	}
	opts.Refresh = q.Get("refresh") == "true"
	return nil
}

type seedResponse struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Seed       uint32 `json:"seed"`
	Hex        string `json:"hex"`
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	addr, err := seed.ParseAddress(chi.URLParam(r, "collection"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := seed.ParseTokenID(chi.URLParam(r, "tokenid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := seed.Derive(addr, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{
		Collection: addr.String(),
		TokenID:    id.String(),
		Seed:       v,
		Hex:        fmt.Sprintf("0x%08x", v),
	})
}

// handleValidate runs the gate on a claim. Rejections are part of a
// successful response; only unreadable requests fail.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var claim gate.Claim
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClaimBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&claim); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode claim"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Gate.Evaluate(r.Context(), claim))
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	if s.deps.Receipts == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "receipts are not recorded"))
		return
	}
	id, err := receipt.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.deps.Receipts.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Receipts == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "receipts are not recorded"))
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.deps.Receipts.List(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*receipt.Receipt{}
	}
	writeJSON(w, http.StatusOK, list)
}

func parseQuery(r *http.Request) (receipt.Query, error) {
	var q receipt.Query
	v := r.URL.Query()
	if s := v.Get("job"); s != "" {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return q, errors.Wrap(errors.ErrCodeInvalidRequest, err, "job %q is not a 32-bit number", s)
		}
		job := uint32(n)
		q.JobID = &job
	}
	if s := v.Get("network"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return q, errors.Wrap(errors.ErrCodeInvalidRequest, err, "network %q is not a number", s)
		}
		q.Network = n
	}
	if s := v.Get("accepted"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, errors.Wrap(errors.ErrCodeInvalidRequest, err, "accepted %q is not a boolean", s)
		}
		q.Accepted = &b
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, errors.New(errors.ErrCodeInvalidRequest, "limit %q is not a non-negative number", s)
		}
		q.Limit = n
	}
	return q, nil
}

func uintParam(r *http.Request, name string) (uint64, error) {
	s := chi.URLParam(r, name)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidRequest, err, "%s %q is not a number", name, s)
	}
	return n, nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
