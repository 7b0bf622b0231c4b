package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"marketboard/internal/apperr"
	"marketboard/internal/models"
)

// handleAdminBlacklist flags an uploader. Accepts either the raw uploader
// id or its precomputed hash; ids are hashed the same way the upload
// pipeline hashes them.
func (s *Server) handleAdminBlacklist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UploaderID   string `json:"uploader_id"`
		UploaderHash string `json:"uploader_hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.BadRequest("invalid JSON body"))
		return
	}

	hash := req.UploaderHash
	if hash == "" {
		if req.UploaderID == "" {
			s.writeError(w, apperr.BadRequest("uploader_id or uploader_hash is required"))
			return
		}
		sum := sha256.Sum256([]byte(req.UploaderID))
		hash = hex.EncodeToString(sum[:])
	}

	if err := s.blacklist.Add(r.Context(), hash); err != nil {
		s.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "uploader_hash": hash})
}

// handleAdminDeleteListings clears the live listing board for one
// world/item pair.
func (s *Server) handleAdminDeleteListings(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseItemID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	target, err := s.catalog.Resolve(mux.Vars(r)["worldOrDc"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	if target.World == nil {
		s.writeError(w, apperr.BadRequest("listings are deleted per world, not per data center"))
		return
	}

	key := models.WorldItem{WorldID: target.World.ID, ItemID: itemID}
	if err := s.listings.DeleteLive(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
