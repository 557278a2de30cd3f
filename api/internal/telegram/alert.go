package telegram

import (
	"fmt"
	"log"
	"path"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"robot-explorer/api/internal/explore"
)

// HumanDetected sends the frame to the operator chat. It returns at once;
// delivery happens in the background so a slow Telegram never holds up the robot.
func (r *Router) HumanDetected(p explore.Position, imageRef string, img []byte, _ string) {
	if r.ChatID == 0 {
		return
	}
	data := append([]byte(nil), img...)
	name := "detection.jpg"
	if imageRef != "" {
		name = path.Base(imageRef)
	}
	go func() {
		photo := tgbotapi.NewPhoto(r.ChatID, tgbotapi.FileBytes{Name: name, Bytes: data})
		photo.Caption = fmt.Sprintf("Person detected at %s", p)
		if _, err := r.Bot.Send(photo); err != nil {
			log.Printf("telegram: alert for %s: %v", p, err)
		}
	}()
}
