package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gotodo/internal/models"
	"gotodo/internal/store"
)

type todoResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTodoResponse(todo models.Todo) todoResponse {
	return todoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (req *createTodoRequest) validate() map[string]string {
	fieldErrors := map[string]string{}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if len(req.Title) < 4 {
		fieldErrors["title"] = "title must be at least 4 characters long"
	}
	if len(req.Description) < 5 {
		fieldErrors["description"] = "description must be at least 5 characters long"
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	todos, err := s.todos.ByOwner(r.Context(), identity.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("list todos")
		respondError(w, http.StatusInternalServerError, "error fetching todos")
		return
	}

	responses := make([]todoResponse, 0, len(todos))
	for _, todo := range todos {
		responses = append(responses, toTodoResponse(todo))
	}
	respondJSON(w, http.StatusOK, map[string]any{"todos": responses})
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	var req createTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fieldErrors := req.validate(); fieldErrors != nil {
		respondValidation(w, fieldErrors)
		return
	}

	// Ownership always comes from the resolved identity, never the body.
	todo := models.Todo{
		UserID:      identity.ID,
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if err := s.todos.Create(r.Context(), &todo); err != nil {
		s.log.Error().Err(err).Msg("create todo")
		respondError(w, http.StatusInternalServerError, "error creating todo")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "todo created successfully",
		"todo":    toTodoResponse(todo),
	})
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	todoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid todo id")
		return
	}

	var req updateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && req.Description == nil && req.Completed == nil {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	fieldErrors := map[string]string{}
	if req.Title != nil {
		*req.Title = strings.TrimSpace(*req.Title)
		if len(*req.Title) < 4 {
			fieldErrors["title"] = "title must be at least 4 characters long"
		}
	}
	if req.Description != nil {
		*req.Description = strings.TrimSpace(*req.Description)
		if len(*req.Description) < 5 {
			fieldErrors["description"] = "description must be at least 5 characters long"
		}
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	todo, err := s.todos.ByID(r.Context(), todoID, identity.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "todo not found")
			return
		}
		s.log.Error().Err(err).Msg("load todo")
		respondError(w, http.StatusInternalServerError, "error updating todo")
		return
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}

	if err := s.todos.Update(r.Context(), todo); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "todo not found")
			return
		}
		s.log.Error().Err(err).Msg("update todo")
		respondError(w, http.StatusInternalServerError, "error updating todo")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "todo updated successfully",
		"todo":    toTodoResponse(*todo),
	})
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	todoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid todo id")
		return
	}

	if err := s.todos.Delete(r.Context(), todoID, identity.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "todo not found")
			return
		}
		s.log.Error().Err(err).Msg("delete todo")
		respondError(w, http.StatusInternalServerError, "error deleting todo")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"message": "todo deleted successfully"})
}
