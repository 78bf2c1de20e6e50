package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/middlewares"
	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/types"
	"stickgpt/stickgpt/utils/logging"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			return ctrl.GetAllChats(r.Context(), middlewares.UserID(r.Context())), http.StatusOK, nil
		}))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.CreateChatRequest
			if r.ContentLength != 0 {
				if err := decodeBody(r, &req); err != nil {
					return nil, http.StatusBadRequest, err
				}
			}
			chat := ctrl.CreateChat(r.Context(), middlewares.UserID(r.Context()), req.ID, req.Title)
			if chat == nil {
				return nil, http.StatusConflict, errors.New("chat was not created")
			}
			return chat, http.StatusCreated, nil
		}))

		// Clear every chat of the caller and their current chat pointer
		gr.Delete("/", handleJSON(func(r *http.Request) (any, int, error) {
			ctrl.ClearAllChats(r.Context(), middlewares.UserID(r.Context()))
			return types.StatusResponse{Status: "cleared"}, http.StatusOK, nil
		}))

		gr.Get("/search", handleJSON(func(r *http.Request) (any, int, error) {
			return ctrl.SearchChats(r.Context(), middlewares.UserID(r.Context()), r.URL.Query().Get("q")), http.StatusOK, nil
		}))

		gr.Post("/bulk-delete", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.BulkDeleteRequest
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if !ctrl.DeleteChats(r.Context(), middlewares.UserID(r.Context()), req.IDs) {
				return nil, http.StatusInternalServerError, errors.New("chats were not deleted")
			}
			return types.OKResponse{OK: true}, http.StatusOK, nil
		}))

		gr.Get("/current", handleJSON(func(r *http.Request) (any, int, error) {
			var res types.CurrentChat
			if id := ctrl.GetCurrentChatID(r.Context(), middlewares.UserID(r.Context())); id != "" {
				res.ChatID = &id
			}
			return res, http.StatusOK, nil
		}))

		gr.Put("/current", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.CurrentChat
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			id := ""
			if req.ChatID != nil {
				id = *req.ChatID
			}
			ctrl.SetCurrentChatID(r.Context(), middlewares.UserID(r.Context()), id)
			return req, http.StatusOK, nil
		}))

		gr.Get("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			chat := ctrl.GetChat(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "id"))
			if chat == nil {
				return nil, http.StatusNotFound, errors.New("chat not found")
			}
			return chat, http.StatusOK, nil
		}))

		gr.Patch("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.UpdateChatRequest
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if req.Title == nil && req.Messages == nil {
				return nil, http.StatusBadRequest, errors.New("nothing to update")
			}
			update := stores.ChatUpdate{Title: req.Title, Messages: req.Messages}
			if !ctrl.UpdateChat(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "id"), update) {
				return nil, http.StatusNotFound, errors.New("chat not updated")
			}
			return types.OKResponse{OK: true}, http.StatusOK, nil
		}))

		gr.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			if !ctrl.DeleteChat(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "id")) {
				return nil, http.StatusInternalServerError, errors.New("chat was not deleted")
			}
			return types.StatusResponse{Status: "deleted"}, http.StatusOK, nil
		}))

		gr.Post("/{id}/messages", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.AddMessageRequest
			if err := decodeBody(r, &req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if !models.ValidRole(req.Role) {
				return nil, http.StatusBadRequest, fmt.Errorf("invalid role %q", req.Role)
			}
			msg, ok := ctrl.AddMessageToChat(r.Context(), middlewares.UserID(r.Context()), chi.URLParam(r, "id"), req.Role, req.Content)
			if !ok {
				return nil, http.StatusInternalServerError, errors.New("message was not saved")
			}
			return msg, http.StatusCreated, nil
		}))
	})

	// Browsers cannot set headers on a websocket upgrade, so the token rides in the first frame.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")
		serveChatSocket(r, conn, ctrl, cfg)
	})
	return r
}

func serveChatSocket(r *http.Request, conn *websocket.Conn, ctrl *controllers.ChatController, cfg config.Config) {
	ctx := r.Context()
	reply := func(res types.SocketReply) error {
		data, err := json.Marshal(res)
		if err != nil {
			return err
		}
		return conn.Write(ctx, websocket.MessageText, data)
	}

	authenticated := false
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				logging.AppLogger.Info("chat socket closed", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var frame types.SocketFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			if err := reply(types.SocketReply{Type: "error", Error: "invalid json"}); err != nil {
				return
			}
			continue
		}

		if !authenticated {
			userID, err := middlewares.ParseToken(cfg, frame.Token)
			if err != nil {
				reply(types.SocketReply{Type: "error", Error: "invalid token"})
				conn.Close(websocket.StatusPolicyViolation, "invalid token")
				return
			}
			authenticated = true
			ctx = middlewares.WithUserID(ctx, userID)
			if err := reply(types.SocketReply{Type: "ready"}); err != nil {
				return
			}
			if frame.Content == "" {
				continue
			}
		}

		if frame.ChatID == "" || !models.ValidRole(frame.Role) {
			if err := reply(types.SocketReply{Type: "error", ChatID: frame.ChatID, Error: "chat_id and a valid role are required"}); err != nil {
				return
			}
			continue
		}
		msg, ok := ctrl.AddMessageToChat(ctx, middlewares.UserID(ctx), frame.ChatID, frame.Role, frame.Content)
		res := types.SocketReply{Type: "message_added", ChatID: frame.ChatID, Message: &msg}
		if !ok {
			res = types.SocketReply{Type: "error", ChatID: frame.ChatID, Error: "message was not saved"}
		}
		if err := reply(res); err != nil {
			return
		}
	}
}
