package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"robot-explorer/api/internal/explore"
)

// botAPI is the part of *tgbotapi.BotAPI the operator bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Router answers operator commands and pushes detection alerts.
type Router struct {
	Bot botAPI
	Ctl *explore.Controller
	// ChatID is the operator chat. When set, commands from other chats are
	// ignored and alerts go there.
	ChatID int64
}

func NewRouter(bot botAPI, ctl *explore.Controller, chatID int64) *Router {
	return &Router{Bot: bot, Ctl: ctl, ChatID: chatID}
}

const helpText = `Robot explorer operator.
/status - current state
/go - start or resume exploration
/halt - stop the robot
/map - explored area`

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || !upd.Message.IsCommand() {
		return
	}
	cid := upd.Message.Chat.ID
	if r.ChatID != 0 && cid != r.ChatID {
		log.Printf("telegram: ignoring command from chat %d", cid)
		return
	}

	switch upd.Message.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "status":
		r.send(cid, formatStatus(r.Ctl.QueryStatus()))
	case "go":
		st, err := r.Ctl.Start(ctx)
		if err != nil {
			r.sendError(cid, err)
			return
		}
		r.send(cid, "Exploration started.\n"+formatStatus(st))
	case "halt":
		st, err := r.Ctl.Stop(ctx)
		if err != nil {
			r.sendError(cid, err)
			return
		}
		r.send(cid, "Robot stopped.\n"+formatStatus(st))
	case "map":
		r.sendMap(cid)
	default:
		r.send(cid, "Unknown command.\n"+helpText)
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram: send: %v", err)
	}
}

func (r *Router) sendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("Error: %v", err))
}

func (r *Router) sendMap(chatID int64) {
	view := r.Ctl.Map()
	cur := r.Ctl.Robot().Current
	png, err := renderMap(view, cur)
	if err != nil {
		r.sendError(chatID, err)
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "map.png", Bytes: png})
	photo.Caption = fmt.Sprintf("visited %d, frontier %d, robot at %s", len(view.Visited), len(view.Frontier), cur)
	if _, err := r.Bot.Send(photo); err != nil {
		log.Printf("telegram: send map: %v", err)
	}
}

func formatStatus(s explore.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state: %s\n", s.Phase)
	fmt.Fprintf(&b, "position: %s\n", s.CurrentPosition)
	fmt.Fprintf(&b, "running: %t, manual stop: %t\n", s.IsRunning, s.ManualStop)
	fmt.Fprintf(&b, "visited: %d, frontier: %d", s.VisitedCount, s.FrontierCount)
	if s.SuggestedNext != nil {
		fmt.Fprintf(&b, "\nnext: %s", *s.SuggestedNext)
	}
	if s.ExplorationComplete {
		b.WriteString("\nexploration complete")
	}
	return b.String()
}
