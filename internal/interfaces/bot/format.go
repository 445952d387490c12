package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/amul-stock-bot/internal/application/subscription"
	"github.com/jhoicas/amul-stock-bot/internal/domain/catalog"
	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// rupees agrupa dígitos al estilo indio (₹1,04,999) en todos los mensajes.
var rupees = message.NewPrinter(language.MustParse("en-IN"))

func formatPrice(price int64) string {
	return rupees.Sprintf("₹%d", price)
}

func statusBadge(available bool) string {
	if available {
		return "🟢 In Stock"
	}
	return "🔴 Out of Stock"
}

const welcomeMessage = `Welcome! I'll help you track Amul protein products.

Use /products to see available products and subscribe to stock notifications.

📝 For any suggestions or feedback, please contact @anshuman852`

const apologyMessage = "An error occurred. Please try again later."

// formatRestockMessage arma la notificación de restock para un suscriptor.
func formatRestockMessage(p entity.Product) string {
	return fmt.Sprintf(`🎉 <b>Stock Update!</b>

<b>%s</b>
📊 Status: <b>Now Available</b>
💰 Price: <b>%s</b>
🏷️ SKU: <code>%s</code>

📍 You are receiving this notification because you subscribed to stock updates for this product.

🛒 <a href="%s">Shop now</a>

ℹ️ You will be notified again if this product goes out of stock and becomes available again.`,
		p.Name, formatPrice(p.Price), p.SKU, p.ShopURL())
}

// formatToggleMessage arma la confirmación de alta o baja de suscripción.
func formatToggleMessage(result *subscription.ToggleResult) string {
	p := result.Product
	if !result.Subscribed {
		return fmt.Sprintf("❌ <b>Unsubscribed from:</b>\n%s\n\n📵 You won't receive notifications for this product anymore.", p.Name)
	}

	status := "🔴 out of stock"
	if p.Available {
		status = "🟢 in stock"
	}
	return fmt.Sprintf(`✅ <b>Subscribed to:</b>
%s

📊 <b>Current Status:</b> %s
💰 <b>Price:</b> %s

🔔 <b>You will be notified when:</b>
• Product comes back in stock (if currently unavailable)
• Product becomes unavailable (if currently in stock)`,
		p.Name, status, formatPrice(p.Price))
}

// formatStockMessage arma el panorama de disponibilidad agrupado por
// categoría/variante, con la última revisión y el próximo chequeo.
func formatStockMessage(products []*entity.Product, nextCheckIn time.Duration) string {
	grouped := make(map[string]map[string][]string)
	var lastChecked time.Time
	for _, p := range products {
		cat, variant := catalog.Classify(p.Name)
		if grouped[cat] == nil {
			grouped[cat] = make(map[string][]string)
		}

		line := fmt.Sprintf("%s - %s - %s", statusBadge(p.Available), catalog.PackInfo(p.Name), formatPrice(p.Price))
		grouped[cat][variant] = append(grouped[cat][variant], line)

		if p.LastChecked.After(lastChecked) {
			lastChecked = p.LastChecked
		}
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Product Categories</b>\n\n")

	for _, cat := range catalog.Categories() {
		variants := grouped[cat.Name]
		if len(variants) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "<b>%s %s</b>\n\n", cat.Emoji, cat.Name)
		for _, variant := range cat.Variants {
			lines := variants[variant]
			if len(lines) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "<b>%s:</b>\n", variant)
			for _, line := range lines {
				fmt.Fprintf(&sb, "• %s\n", line)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(strings.Repeat("─", 30) + "\n")
	if !lastChecked.IsZero() {
		fmt.Fprintf(&sb, "🕐 <b>Last updated:</b> %s\n", lastChecked.Format("2006-01-02 15:04"))
	}
	if nextCheckIn > 0 {
		next := time.Now().Add(nextCheckIn)
		fmt.Fprintf(&sb, "⏰ <b>Next check in:</b> %d minutes (around %s)",
			int(nextCheckIn.Minutes()), next.Format("15:04"))
	} else {
		sb.WriteString("⏰ <b>Next check:</b> after downtime")
	}
	return sb.String()
}

// formatMySubsMessage agrupa las suscripciones del usuario por estado de espera.
func formatMySubsMessage(views []subscription.View) string {
	if len(views) == 0 {
		return "You haven't subscribed to any products yet.\nUse /products to browse and subscribe to products."
	}

	var waitingForStock, waitingForRestock, inStock []string
	for _, v := range views {
		p := v.Product
		info := fmt.Sprintf("• %s - %s\n  Status: %s", p.Name, formatPrice(p.Price), statusBadge(p.Available))
		if p.Available {
			info += fmt.Sprintf("\n  🛒 <a href=\"%s\">Shop now</a>", p.ShopURL())
		}
		if v.Subscription.LastNotifiedAt != nil {
			info += fmt.Sprintf("\n  Last notification: %s", v.Subscription.LastNotifiedAt.Format("2006-01-02 15:04"))
		}

		switch {
		case p.Available:
			inStock = append(inStock, info)
		case v.Subscription.LastNotifiedAt != nil:
			// Estuvo en stock alguna vez; ahora espera la vuelta.
			waitingForRestock = append(waitingForRestock, info)
		default:
			waitingForStock = append(waitingForStock, info)
		}
	}

	var sb strings.Builder
	sb.WriteString("📬 <b>Your Subscriptions</b>\n\n")
	if len(waitingForStock) > 0 {
		sb.WriteString("<b>🔄 Waiting for Stock:</b>\n" + strings.Join(waitingForStock, "\n\n") + "\n\n")
	}
	if len(waitingForRestock) > 0 {
		sb.WriteString("<b>⏳ Waiting for Restock:</b>\n" + strings.Join(waitingForRestock, "\n\n") + "\n\n")
	}
	if len(inStock) > 0 {
		sb.WriteString("<b>✅ Currently Available:</b>\n" + strings.Join(inStock, "\n\n") + "\n\n")
	}
	sb.WriteString(strings.Repeat("─", 30) + "\n")
	sb.WriteString("ℹ️ You will be notified when products come back in stock.\n")
	sb.WriteString("📱 Use /products to manage your subscriptions.")
	return sb.String()
}
