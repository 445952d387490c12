package entity

import "time"

// User representa una cuenta de Telegram que interactuó con el bot.
// Se crea de forma perezosa en la primera interacción y no muta después;
// sus relaciones viven en Subscription.
type User struct {
	ID        string // id de usuario de Telegram, estable por cuenta
	FirstSeen time.Time
}
