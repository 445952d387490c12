package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jhoicas/amul-stock-bot/internal/application/monitor"
	"github.com/jhoicas/amul-stock-bot/internal/application/subscription"
	"github.com/jhoicas/amul-stock-bot/internal/domain"
	"github.com/jhoicas/amul-stock-bot/internal/domain/catalog"
	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"github.com/jhoicas/amul-stock-bot/internal/infrastructure/telegram"
	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// Prefijos de callback de los teclados inline.
const (
	callbackToggle   = "toggle_"
	callbackCategory = "category_"
	callbackBack     = "back_to_categories"
)

// Commands comandos registrados en el menú del bot.
var Commands = []telegram.Command{
	{Name: "start", Description: "Start the bot and get welcome message"},
	{Name: "products", Description: "Browse and subscribe to products"},
	{Name: "mysubs", Description: "View your subscribed products"},
	{Name: "stock", Description: "Check current stock status of all products"},
}

var _ monitor.Notifier = (*Handler)(nil)

// timeNow indirección para tests de formato.
var timeNow = time.Now

// Handler atiende comandos y callbacks entrantes del bot y, como puerto
// Notifier, entrega las notificaciones que produce la reconciliación.
// Cada update se procesa en su propia goroutine; una falla en un comando
// responde una disculpa genérica y jamás tumba el proceso.
type Handler struct {
	bot       *telegram.Bot
	subs      *subscription.UseCase
	policy    monitor.SchedulePolicy
	channelID string // canal de difusión de restocks, vacío = deshabilitado
	log       *logger.Logger
}

// NewHandler construye el handler del bot.
func NewHandler(bot *telegram.Bot, subs *subscription.UseCase, policy monitor.SchedulePolicy, channelID string, log *logger.Logger) *Handler {
	return &Handler{bot: bot, subs: subs, policy: policy, channelID: channelID, log: log}
}

// NotifyRestock implementa monitor.Notifier: formatea y envía el aviso de
// restock al suscriptor.
func (h *Handler) NotifyRestock(ctx context.Context, userID string, product entity.Product) error {
	_ = ctx // el transporte acota sus propios envíos
	return h.bot.SendHTML(userID, formatRestockMessage(product))
}

// AnnounceRestock implementa monitor.Notifier: difunde el restock al canal
// configurado, si lo hay.
func (h *Handler) AnnounceRestock(ctx context.Context, product entity.Product) error {
	_ = ctx
	if h.channelID == "" {
		return nil
	}
	return h.bot.SendHTML(h.channelID, formatRestockMessage(product))
}

// Run consume updates hasta que el contexto se cancele.
func (h *Handler) Run(ctx context.Context) {
	updates := h.bot.Updates()
	for {
		select {
		case <-ctx.Done():
			h.bot.StopPolling()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go h.handle(ctx, update)
		}
	}
}

func (h *Handler) handle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Msg("pánico atendiendo update")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		h.handleCommand(ctx, update.Message)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	cmd := msg.Command()

	var err error
	switch cmd {
	case "start":
		err = h.cmdStart(ctx, userID, chatID)
	case "products":
		err = h.cmdProducts(ctx, chatID)
	case "mysubs":
		err = h.cmdMySubs(ctx, userID, chatID)
	case "stock":
		err = h.cmdStock(ctx, chatID)
	default:
		// Atajo numérico /N: alterna el N-ésimo producto del catálogo
		// ordenado por nombre (el mismo orden que muestra /stock).
		if n, convErr := strconv.Atoi(cmd); convErr == nil {
			err = h.cmdToggleNth(ctx, userID, chatID, n)
		} else {
			return // comando desconocido, se ignora
		}
	}

	if err != nil {
		h.log.Error().Err(err).Str("comando", cmd).Str("usuario", userID).Msg("fallo atendiendo comando")
		if sendErr := h.bot.SendHTML(chatID, apologyMessage); sendErr != nil {
			h.log.Error().Err(sendErr).Msg("no se pudo enviar la disculpa")
		}
	}
}

func (h *Handler) cmdStart(ctx context.Context, userID, chatID string) error {
	if err := h.subs.EnsureUser(ctx, userID); err != nil {
		return err
	}
	return h.bot.SendHTML(chatID, welcomeMessage)
}

func (h *Handler) cmdProducts(ctx context.Context, chatID string) error {
	products, err := h.subs.Products(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		// Sin fallback a la API desde comandos: el fetch es exclusivo de
		// la cadena de reconciliación.
		return h.bot.SendHTML(chatID, "No products available at the moment. Please try again later.")
	}

	return h.bot.SendKeyboard(chatID,
		"🛒 <b>Product Catalog</b>\n\n"+
			"📱 Select a category to browse its products\n"+
			"👆 Then tap a product to subscribe/unsubscribe\n\n"+
			"🟢 = In Stock | 🔴 = Out of Stock | ✅ = Subscribed",
		categoryKeyboard())
}

func (h *Handler) cmdMySubs(ctx context.Context, userID, chatID string) error {
	views, err := h.subs.MySubscriptions(ctx, userID)
	if err != nil {
		return err
	}
	return h.bot.SendHTML(chatID, formatMySubsMessage(views))
}

func (h *Handler) cmdStock(ctx context.Context, chatID string) error {
	products, err := h.subs.Products(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return h.bot.SendHTML(chatID, "No products found in database. Please try again later.")
	}

	interval, _ := h.policy.IntervalFor(timeNow())
	return h.bot.SendHTML(chatID, formatStockMessage(products, interval))
}

func (h *Handler) cmdToggleNth(ctx context.Context, userID, chatID string, n int) error {
	products, err := h.subs.Products(ctx)
	if err != nil {
		return err
	}
	if n < 1 || n > len(products) {
		return h.bot.SendHTML(chatID, fmt.Sprintf("There is no product #%d. Use /products to browse the catalog.", n))
	}

	result, err := h.subs.Toggle(ctx, userID, products[n-1].ID)
	if err != nil {
		return err
	}
	return h.bot.SendHTML(chatID, formatToggleMessage(result))
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	h.bot.AnswerCallback(cb.ID)
	if cb.Message == nil {
		return
	}

	userID := strconv.FormatInt(cb.From.ID, 10)
	chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)
	messageID := cb.Message.MessageID

	var err error
	switch {
	case strings.HasPrefix(cb.Data, callbackToggle):
		err = h.callbackToggle(ctx, userID, chatID, messageID, strings.TrimPrefix(cb.Data, callbackToggle))
	case strings.HasPrefix(cb.Data, callbackCategory):
		err = h.callbackCategory(ctx, userID, chatID, messageID, strings.TrimPrefix(cb.Data, callbackCategory))
	case cb.Data == callbackBack:
		err = h.bot.EditHTML(chatID, messageID, "🛒 <b>Product Catalog</b>\n\nSelect a category:", keyboardPtr(categoryKeyboard()))
	}

	if err != nil {
		h.log.Error().Err(err).Str("callback", cb.Data).Str("usuario", userID).Msg("fallo atendiendo callback")
		if editErr := h.bot.EditHTML(chatID, messageID, apologyMessage, nil); editErr != nil {
			h.log.Error().Err(editErr).Msg("no se pudo editar con la disculpa")
		}
	}
}

func (h *Handler) callbackToggle(ctx context.Context, userID, chatID string, messageID int, productID string) error {
	result, err := h.subs.Toggle(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return h.bot.EditHTML(chatID, messageID, "Error: Product not found.", nil)
		}
		return err
	}
	return h.bot.EditHTML(chatID, messageID, formatToggleMessage(result), nil)
}

func (h *Handler) callbackCategory(ctx context.Context, userID, chatID string, messageID int, category string) error {
	products, err := h.subs.Products(ctx)
	if err != nil {
		return err
	}
	subscribed, err := h.subs.SubscribedProductIDs(ctx, userID)
	if err != nil {
		return err
	}

	keyboard := productKeyboard(products, category, subscribed)
	if len(keyboard.InlineKeyboard) == 1 { // solo el botón de volver
		return h.bot.EditHTML(chatID, messageID,
			fmt.Sprintf("No products in <b>%s</b> yet.", category), keyboardPtr(keyboard))
	}
	return h.bot.EditHTML(chatID, messageID,
		fmt.Sprintf("🛒 <b>%s</b>\n\nTap a product to subscribe/unsubscribe:", category),
		keyboardPtr(keyboard))
}

// categoryKeyboard un botón por categoría, en el orden fijo de presentación.
func categoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range catalog.Categories() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(cat.Emoji+" "+cat.Name, callbackCategory+cat.Name),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// productKeyboard un botón de toggle por producto de la categoría, más el
// botón de volver.
func productKeyboard(products []*entity.Product, category string, subscribed map[string]bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		cat, _ := catalog.Classify(p.Name)
		if cat != category {
			continue
		}

		label := fmt.Sprintf("%s - %s (%s)", p.Name, formatPrice(p.Price), statusBadge(p.Available))
		if subscribed[p.ID] {
			label += " ✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackToggle+p.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to categories", callbackBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func keyboardPtr(kb tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup {
	return &kb
}
