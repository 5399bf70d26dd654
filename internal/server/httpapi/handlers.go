package httpapi

import (
	"net/http"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- identity ---

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	u, err := s.svc.Users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{ID: u.ID, Username: u.UserName})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.svc.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *HTTPServer) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.svc.Users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// --- active notes ---

func (s *HTTPServer) createNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	note, err := s.svc.Notes.Create(r.Context(), UserIDFromContext(r), req.Title, req.Content)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *HTTPServer) listNotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Notes.ListActive(r.Context(), UserIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) getNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.svc.Notes.Get(r.Context(), UserIDFromContext(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *HTTPServer) updateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	note, err := s.svc.Notes.Update(r.Context(), UserIDFromContext(r), r.PathValue("id"), req.Title, req.Content)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *HTTPServer) trashNote(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Lifecycle.Trash(r.Context(), UserIDFromContext(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) exportNotes(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Export.Export(r.Context(), UserIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- trash ---

func (s *HTTPServer) listTrashed(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Trash.ListTrashed(r.Context(), UserIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) restoreNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.svc.Lifecycle.Restore(r.Context(), UserIDFromContext(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *HTTPServer) eraseTrashed(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Trash.EraseForever(r.Context(), UserIDFromContext(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
