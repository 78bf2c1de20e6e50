package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/middlewares"
	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/types"

	"github.com/go-chi/chi/v5"
)

func MemoryRoutes(ctrl *controllers.MemoryController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			return ctrl.GetAllUserMemories(r.Context(), middlewares.UserID(r.Context())), http.StatusOK, nil
		}))

		gr.Get("/type/{type}", handleJSON(func(r *http.Request) (any, int, error) {
			memoryType := models.MemoryType(chi.URLParam(r, "type"))
			if !memoryType.Valid() {
				return nil, http.StatusBadRequest, fmt.Errorf("invalid memory type %q", memoryType)
			}
			return ctrl.GetUserMemoriesByType(r.Context(), middlewares.UserID(r.Context()), memoryType), http.StatusOK, nil
		}))

		gr.Get("/search", handleJSON(func(r *http.Request) (any, int, error) {
			term := r.URL.Query().Get("q")
			return ctrl.SearchUserMemories(r.Context(), middlewares.UserID(r.Context()), term), http.StatusOK, nil
		}))

		gr.Get("/context", handleJSON(func(r *http.Request) (any, int, error) {
			limit := stores.DefaultContextLimit
			if s := r.URL.Query().Get("limit"); s != "" {
				n, err := strconv.Atoi(s)
				if err != nil {
					return nil, http.StatusBadRequest, err
				}
				limit = n
			}
			text := ctrl.GetUserContextForAI(r.Context(), middlewares.UserID(r.Context()), limit)
			return map[string]string{"context": text}, http.StatusOK, nil
		}))

		gr.Post("/choices", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.RecordChoiceRequest
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if req.Key == "" {
				return nil, http.StatusBadRequest, errors.New("key is required")
			}
			if !ctrl.RecordChoice(r.Context(), middlewares.UserID(r.Context()), req.Key, req.Question, req.Selected, req.Context) {
				return nil, http.StatusInternalServerError, errors.New("choice was not saved")
			}
			return types.OKResponse{OK: true}, http.StatusCreated, nil
		}))

		gr.Get("/{key}", handleJSON(func(r *http.Request) (any, int, error) {
			m := ctrl.GetUserMemory(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "key"))
			if m == nil {
				return nil, http.StatusNotFound, errors.New("memory not found")
			}
			return m, http.StatusOK, nil
		}))

		gr.Put("/{key}", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.SaveMemoryRequest
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if !req.MemoryType.Valid() {
				return nil, http.StatusBadRequest, fmt.Errorf("invalid memory type %q", req.MemoryType)
			}
			opts := []stores.SaveOption{stores.WithMemoryContext(req.Context)}
			if req.Confidence != nil {
				if *req.Confidence < 0 || *req.Confidence > 1 {
					return nil, http.StatusBadRequest, stores.ErrInvalidConfidence
				}
				opts = append(opts, stores.WithConfidence(*req.Confidence))
			}
			ok := ctrl.SaveUserMemory(r.Context(), middlewares.UserID(r.Context()), req.MemoryType, chi.URLParam(r, "key"), req.Value, opts...)
			if !ok {
				return nil, http.StatusInternalServerError, errors.New("memory was not saved")
			}
			return types.OKResponse{OK: true}, http.StatusOK, nil
		}))

		gr.Delete("/{key}", handleJSON(func(r *http.Request) (any, int, error) {
			if !ctrl.DeleteUserMemory(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "key")) {
				return nil, http.StatusInternalServerError, errors.New("memory was not deleted")
			}
			return types.StatusResponse{Status: "deleted"}, http.StatusOK, nil
		}))
	})
	return r
}
