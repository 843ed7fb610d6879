package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"confgit.dev/confgit/internal/yamljson"
)

// HandleGetConfig serves a document as JSON. The document's commit
// fingerprint is returned in the ETag header for a later conditional save.
func (s *Server) HandleGetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docType := chi.URLParam(r, "type")

		doc, err := s.store.Load(r.Context(), docType)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		jsonBytes, err := yamljson.ToJSON(doc.Bytes)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if doc.Fingerprint != "" {
			w.Header().Set("ETag", strconv.Quote(doc.Fingerprint))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jsonBytes)
	}
}

// HandleSaveConfig stores a JSON document as YAML. The base fingerprint
// comes from If-Match (or the legacy ETag request header); omitting it is
// only valid for a document no commit has touched yet.
func (s *Server) HandleSaveConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docType := chi.URLParam(r, "type")

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}

		yamlBytes, err := yamljson.ToYAML(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		if s.validateDocs {
			violations, err := s.validator.Validate(docType, body)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			if len(violations) > 0 {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"violations": violations})
				return
			}
		}

		author := AuthorForUser(UsernameFromContext(r.Context()))
		commitID, err := s.store.Save(r.Context(), docType, yamlBytes, requestFingerprint(r), author)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Set("ETag", strconv.Quote(commitID))
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListSchemas serves the types a schema exists for.
func (s *Server) HandleListSchemas() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := s.schemas.List()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, types)
	}
}

// HandleGetSchema serves one schema verbatim.
func (s *Server) HandleGetSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.schemas.Load(chi.URLParam(r, "type"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}
}

// HandleSync forces a synchronization with the remote and reloads
// compiled schemas, so out-of-band pushes become visible immediately.
func (s *Server) HandleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.store.Resync(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if s.validator != nil {
			s.validator.Reload()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"merged": result.Merged(),
			"result": result.String(),
		})
	}
}

// requestFingerprint extracts the base fingerprint of a conditional save.
// If-Match is the HTTP-conformant spelling; a bare ETag request header is
// accepted for older clients.
func requestFingerprint(r *http.Request) string {
	if match := r.Header.Get("If-Match"); match != "" {
		return strings.Trim(match, `"`)
	}
	return strings.Trim(r.Header.Get("ETag"), `"`)
}
