package entity

import "time"

// Product representa un producto del catálogo de la tienda.
// El ID es el identificador opaco del catálogo upstream: estable entre
// chequeos e inmutable una vez creado. Un chequeo solo puede sobrescribir
// Price, Available y LastChecked; el resto se fija en la primera observación.
// Los productos nunca se borran: desaparecer del upstream no es borrado.
type Product struct {
	ID          string
	Name        string
	Price       int64 // rupias enteras, tal como las sirve el catálogo
	SKU         string
	Alias       string // slug de la URL de la tienda
	Available   bool
	ImageURL    string // opcional, puede ser vacío
	LastChecked time.Time
}

// ShopURL devuelve el enlace público del producto en la tienda.
func (p *Product) ShopURL() string {
	return "https://shop.amul.com/en/product/" + p.Alias
}
