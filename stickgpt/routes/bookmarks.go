package routes

import (
	"errors"
	"net/http"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/middlewares"
	"stickgpt/stickgpt/types"

	"github.com/go-chi/chi/v5"
)

func BookmarkRoutes(ctrl *controllers.BookmarksController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			return ctrl.GetBookmarks(r.Context(), middlewares.UserID(r.Context())), http.StatusOK, nil
		}))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.AddBookmarkRequest
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if req.MessageID == "" {
				return nil, http.StatusBadRequest, errors.New("message_id is required")
			}
			if !ctrl.AddBookmark(r.Context(), middlewares.UserID(r.Context()), req.ChatID, req.MessageID, req.Content) {
				return nil, http.StatusInternalServerError, errors.New("bookmark was not saved")
			}
			return types.OKResponse{OK: true}, http.StatusCreated, nil
		}))

		gr.Get("/{message_id}", handleJSON(func(r *http.Request) (any, int, error) {
			ok := ctrl.IsBookmarked(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "message_id"))
			return map[string]bool{"bookmarked": ok}, http.StatusOK, nil
		}))

		gr.Delete("/{message_id}", handleJSON(func(r *http.Request) (any, int, error) {
			if !ctrl.RemoveBookmark(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "message_id")) {
				return nil, http.StatusInternalServerError, errors.New("bookmark was not removed")
			}
			return types.OKResponse{OK: true}, http.StatusOK, nil
		}))
	})
	return r
}
