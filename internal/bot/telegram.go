package bot

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender минимальный интерфейс исходящих сообщений: текст и вопрос с
// вариантами ответа. Больше от транспорта ядру ничего не нужно.
type Sender interface {
	SendText(chatID int64, text string)
	PromptChoices(chatID int64, text string, choices []string)
}

// tgSender реализация Sender поверх Telegram Bot API
type tgSender struct {
	api *tgbotapi.BotAPI
}

func (s *tgSender) SendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.api.Send(msg); err != nil {
		log.Printf("Ошибка отправки сообщения в чат %d: %v", chatID, err)
	}
}

func (s *tgSender) PromptChoices(chatID int64, text string, choices []string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = choicesKeyboard(choices)
	if _, err := s.api.Send(msg); err != nil {
		log.Printf("Ошибка отправки сообщения в чат %d: %v", chatID, err)
	}
}

// choicesKeyboard одноразовая клавиатура с вариантами по два в ряд
func choicesKeyboard(choices []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(choices); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(choices[i])}
		if i+1 < len(choices) {
			row = append(row, tgbotapi.NewKeyboardButton(choices[i+1]))
		}
		rows = append(rows, row)
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return keyboard
}
