package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/handler/views"
	appI18n "github.com/pavelanni/protu/internal/i18n"
)

// chatNameLen caps the name of a chat created from its first message.
const chatNameLen = 40

// chatName derives a chat name from the first line of msg.
func chatName(msg string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= chatNameLen {
		return line
	}
	return string([]rune(line)[:chatNameLen]) + "..."
}

func (h *Handler) renderChat(w http.ResponseWriter, r *http.Request, chatID string, notice *views.Notice) {
	ctx := r.Context()
	backend := h.apiFor(ctx)
	d := views.ChatData{
		Page:    views.Page{Title: appI18n.T(ctx, "NavChat"), Notice: notice},
		Current: chatID,
	}

	chats, err := backend.ListChats(ctx)
	if err != nil {
		slog.Error("failed to list chats", "error", err)
		d.Notice = errorNotice(api.MessageOf(err, "Failed to load chats."))
	}
	d.Chats = chats

	if chatID != "" {
		msgs, err := backend.ListMessages(ctx, chatID)
		if err != nil {
			slog.Error("failed to list messages", "chat_id", chatID, "error", err)
			d.Notice = errorNotice(api.MessageOf(err, "Failed to load messages."))
		}
		d.Messages = msgs
	}
	h.render(w, r, http.StatusOK, views.ChatPage(d))
}

func (h *Handler) handleChatPage(w http.ResponseWriter, r *http.Request) {
	h.renderChat(w, r, chi.URLParam(r, "chatID"), nil)
}

// handleChatSend posts a message. Without a current chat a new one is created
// and named after the message.
func (h *Handler) handleChatSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := r.FormValue("chat_id")
	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		h.renderChat(w, r, chatID, nil)
		return
	}

	backend := h.apiFor(ctx)
	if chatID == "" {
		chat, err := backend.CreateChat(ctx, chatName(content))
		if err != nil {
			slog.Error("failed to create chat", "error", err)
			h.renderChat(w, r, "", errorNotice(api.MessageOf(err, "Failed to create chat.")))
			return
		}
		chatID = chat.ID
		slog.Info("chat created", "chat_id", chatID)
	}

	if _, err := backend.SendMessage(ctx, chatID, content); err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err)
		h.renderChat(w, r, chatID, errorNotice(api.MessageOf(err, "Failed to send message.")))
		return
	}
	http.Redirect(w, r, h.path("/chat/"+chatID), http.StatusSeeOther)
}
