package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/polyglot-chat/internal/registry"
	"github.com/npezzotti/polyglot-chat/internal/server"
	"github.com/npezzotti/polyglot-chat/internal/stats"
	"github.com/npezzotti/polyglot-chat/internal/translate"
	"github.com/npezzotti/polyglot-chat/internal/types"
)

const (
	errMissingName   = "Please enter a name."
	errMissingCode   = "Please enter a room code."
	errRoomNotFound  = "Room does not exist."
	errNoRoomsLeft   = "No rooms available, try again later."
	roomPath         = "/room"
	entryPath        = "/"
	noStoreDirective = "no-store, no-cache, must-revalidate, private"
)

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *ChatApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("OK"))
}

// home shows the entry form. Visiting it always drops the current session.
func (s *ChatApp) home(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, clearSessionCookie())
	s.renderHome(w, http.StatusOK, homePage{Language: translate.DefaultLanguage})
}

func (s *ChatApp) renderHome(w http.ResponseWriter, status int, page homePage) {
	page.Languages = languageOptions
	s.render(w, status, "home.html", page)
}

func (s *ChatApp) enterRoom(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, clearSessionCookie())

	if err := r.ParseForm(); err != nil {
		s.renderHome(w, http.StatusBadRequest, homePage{Error: "Invalid form submission."})
		return
	}

	var (
		name      = strings.TrimSpace(r.PostForm.Get("name"))
		code      = strings.ToUpper(strings.TrimSpace(r.PostForm.Get("code")))
		language  = translate.NormalizeLanguage(r.PostForm.Get("language"))
		_, join   = r.PostForm["join"]
		_, create = r.PostForm["create"]
	)

	form := homePage{Name: name, Code: code, Language: language}

	if name == "" {
		form.Error = errMissingName
		s.renderHome(w, http.StatusOK, form)
		return
	}

	if join && code == "" {
		form.Error = errMissingCode
		s.renderHome(w, http.StatusOK, form)
		return
	}

	room := code
	if create {
		newCode, err := s.rooms.CreateRoom()
		if err != nil {
			s.log.Println("create room:", err)
			form.Error = errNoRoomsLeft
			s.renderHome(w, http.StatusServiceUnavailable, form)
			return
		}

		room = newCode
		s.stats.Incr(stats.NumActiveRooms)
		s.log.Printf("room %s created by %s", room, name)
	}

	if err := s.rooms.RecordJoin(room, name, language); err != nil {
		form.Error = errRoomNotFound
		s.renderHome(w, http.StatusOK, form)
		return
	}

	sess := types.Session{Room: room, Name: name, Language: language}
	token, err := s.createSessionToken(sess, defaultSessionExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createSessionCookie(token, defaultSessionExpiration))
	http.Redirect(w, r, roomPath, http.StatusSeeOther)
}

// room renders the chat view for the session's room, sending the client back
// to the entry form when the session or its room is gone.
func (s *ChatApp) room(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.leaveToEntry(w, r)
		return
	}

	history, err := s.rooms.History(sess.Room)
	if err != nil {
		s.leaveToEntry(w, r)
		return
	}

	w.Header().Set("Cache-Control", noStoreDirective)
	s.render(w, http.StatusOK, "room.html", roomPage{
		Code:     sess.Room,
		Name:     sess.Name,
		Language: sess.Language,
		Messages: history,
	})
}

func (s *ChatApp) leaveToEntry(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, clearSessionCookie())
	http.Redirect(w, r, entryPath, http.StatusFound)
}

func (s *ChatApp) getRoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	history, err := s.rooms.History(sess.Room)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, registry.ErrRoomNotFound) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if history == nil {
		history = []types.Message{}
	}

	s.writeJson(w, http.StatusOK, types.Room{
		Code:     sess.Room,
		Messages: history,
	})
}

func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client, err := server.NewClient(sess, conn, s.cs, s.log)
	if err != nil {
		s.log.Println("new client:", err)
		conn.Close()
		return
	}

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
