package entity

import "time"

// Subscription une un User con un Product (a lo sumo una fila por par).
// LastStockStatus es la línea base para detectar transiciones de stock;
// Notified indica si el usuario ya fue informado del estado actual.
// Al suscribirse, ambos se inicializan con la disponibilidad vigente del
// producto: si ya está en stock el usuario se considera informado y no
// recibe un mensaje inmediato redundante.
type Subscription struct {
	ID              string // uuid sustituto
	UserID          string
	ProductID       string
	SubscribedAt    time.Time
	LastNotifiedAt  *time.Time
	Notified        bool
	LastStockStatus bool
}
