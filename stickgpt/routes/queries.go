package routes

import (
	"net/http"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/middlewares"
	"stickgpt/stickgpt/types"

	"github.com/go-chi/chi/v5"
)

func QueryRoutes(ctrl *controllers.QueriesController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			return ctrl.GetRecentQueries(r.Context(), middlewares.UserID(r.Context())), http.StatusOK, nil
		}))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.AddQueryRequest
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			return ctrl.AddQuery(r.Context(), middlewares.UserID(r.Context()), req.Query), http.StatusOK, nil
		}))

		gr.Delete("/", handleJSON(func(r *http.Request) (any, int, error) {
			ctrl.ClearRecentQueries(r.Context(), middlewares.UserID(r.Context()))
			return types.StatusResponse{Status: "cleared"}, http.StatusOK, nil
		}))
	})
	return r
}
