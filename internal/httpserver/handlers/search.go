package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/linkaudit/internal/audit"
	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
)

const maxBodyBytes = 64 << 10

type searchRequest struct {
	Domain string `json:"domain"`
	Mode   string `json:"mode"`
	Query  string `json:"query"`
	Count  int    `json:"count"`
}

type searchResponse struct {
	Message     string          `json:"message,omitempty"`
	Query       string          `json:"query"`
	Target      int             `json:"target"`
	Termination string          `json:"termination"`
	Session     *domain.Session `json:"session,omitempty"`
}

// Search runs a paginated search and stores the results as a new session.
//
// 201 with the session when records were found, 200 with a message when the
// provider had nothing, 412 when credentials are missing.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body searchRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}

		mode, err := domain.ParseSearchMode(body.Mode)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		count := body.Count
		if count == 0 {
			count = d.DefaultCount
		}

		res, err := d.Audit.Search(r.Context(), audit.SearchRequest{
			Domain: body.Domain,
			Mode:   mode,
			Query:  body.Query,
			Count:  count,
		}, nil)
		if err != nil {
			status := writeServiceError(w, err)
			if status == http.StatusInternalServerError {
				d.Logger.Error("search failed", logger.Error(err))
			}
			return
		}

		resp := searchResponse{
			Query:       res.Query,
			Target:      res.Target,
			Termination: res.Termination.String(),
			Session:     res.Session,
		}
		if res.Session == nil {
			resp.Message = "no results found"
			writeJSON(w, http.StatusOK, resp)
			return
		}

		w.Header().Set("Location", "/sessions/"+res.Session.ID)
		writeJSON(w, http.StatusCreated, resp)
	}
}
