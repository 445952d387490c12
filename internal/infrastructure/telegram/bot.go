package telegram

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// sendTimeout acota cada llamada a la API de Telegram para que un envío
// colgado no bloquee el ciclo que lo originó.
const sendTimeout = 30 * time.Second

// Bot es el adaptador de transporte sobre la Bot API de Telegram.
// Solo mueve mensajes; el formato y las decisiones viven en interfaces/bot.
type Bot struct {
	api *tgbotapi.BotAPI
	log *logger.Logger
}

// New autentica el bot contra la API de Telegram.
func New(token string, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: sendTimeout})
	if err != nil {
		return nil, fmt.Errorf("autenticar bot: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("bot autenticado")
	return &Bot{api: api, log: log}, nil
}

// Command un comando del bot con su descripción para el menú de Telegram.
type Command struct {
	Name        string
	Description string
}

// SetCommands registra la lista de comandos visible en el cliente.
func (b *Bot) SetCommands(commands []Command) error {
	list := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		list = append(list, tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(list...)); err != nil {
		return fmt.Errorf("registrar comandos: %w", err)
	}
	return nil
}

// SendHTML envía un mensaje con formato HTML al chat indicado.
func (b *Bot) SendHTML(chatID, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("enviar mensaje: %w", err)
	}
	return nil
}

// SendKeyboard envía un mensaje HTML con teclado inline.
func (b *Bot) SendKeyboard(chatID, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("enviar teclado: %w", err)
	}
	return nil
}

// EditHTML reemplaza el texto (y opcionalmente el teclado) de un mensaje ya enviado.
func (b *Bot) EditHTML(chatID string, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(id, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("editar mensaje: %w", err)
	}
	return nil
}

// AnswerCallback confirma la pulsación de un botón (quita el spinner del cliente).
func (b *Bot) AnswerCallback(callbackID string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.log.Warn().Err(err).Msg("no se pudo responder el callback")
	}
}

// Updates abre el canal de long polling de la Bot API.
func (b *Bot) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	return b.api.GetUpdatesChan(u)
}

// StopPolling cierra el canal de updates.
func (b *Bot) StopPolling() {
	b.api.StopReceivingUpdates()
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chat id inválido %q: %w", chatID, err)
	}
	return id, nil
}
