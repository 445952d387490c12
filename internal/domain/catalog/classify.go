package catalog

import "strings"

// Clasificación de productos en categorías/variantes de presentación
// (servicio de dominio puro, sin I/O). Es una heurística por substrings
// sobre el nombre del producto: best-effort, solo para agrupar en los
// mensajes del bot. Nunca alimenta estado persistido.

// Nombres de categoría.
const (
	CategoryWheyProtein   = "Whey Protein"
	CategoryProteinShakes = "Protein Shakes"
	CategoryProteinDrinks = "Protein Drinks"
	CategoryPaneer        = "Paneer"
)

// Category describe una categoría de presentación con sus variantes en
// orden estable de render.
type Category struct {
	Name     string
	Emoji    string
	Variants []string
}

// Categories devuelve las categorías en el orden fijo de presentación.
func Categories() []Category {
	return []Category{
		{Name: CategoryWheyProtein, Emoji: "💪", Variants: []string{"Chocolate", "Unflavoured"}},
		{Name: CategoryProteinShakes, Emoji: "🥤", Variants: []string{"Chocolate", "Coffee", "Kesar", "Blueberry"}},
		{Name: CategoryProteinDrinks, Emoji: "🥛", Variants: []string{"Milk", "Buttermilk", "Plain Lassi", "Rose Lassi"}},
		{Name: CategoryPaneer, Emoji: "🧀", Variants: []string{"Regular"}},
	}
}

// Classify asigna (categoría, variante) a un nombre de producto.
// Precedencia: whey protein > shakes > paneer > drinks; dentro de drinks,
// "milk" solo cuenta si el nombre no contiene "shake" (buttermilk sí es
// una variante propia).
func Classify(name string) (category, variant string) {
	n := strings.ToLower(name)

	switch {
	case strings.Contains(n, "whey protein"):
		if strings.Contains(n, "chocolate") {
			return CategoryWheyProtein, "Chocolate"
		}
		return CategoryWheyProtein, "Unflavoured"

	case strings.Contains(n, "milkshake") || strings.Contains(n, "shake"):
		switch {
		case strings.Contains(n, "chocolate"):
			return CategoryProteinShakes, "Chocolate"
		case strings.Contains(n, "coffee"):
			return CategoryProteinShakes, "Coffee"
		case strings.Contains(n, "blueberry"):
			return CategoryProteinShakes, "Blueberry"
		default:
			return CategoryProteinShakes, "Kesar"
		}

	case strings.Contains(n, "paneer"):
		return CategoryPaneer, "Regular"

	default:
		switch {
		case strings.Contains(n, "buttermilk"):
			return CategoryProteinDrinks, "Buttermilk"
		case strings.Contains(n, "milk"):
			return CategoryProteinDrinks, "Milk"
		case strings.Contains(n, "rose lassi"):
			return CategoryProteinDrinks, "Rose Lassi"
		default:
			return CategoryProteinDrinks, "Plain Lassi"
		}
	}
}

// PackInfo extrae el segmento "Pack of N" del nombre, si existe.
// Los nombres del catálogo separan segmentos con "|".
func PackInfo(name string) string {
	if !strings.Contains(strings.ToLower(name), "pack of") {
		return ""
	}
	for _, part := range strings.Split(name, "|") {
		if strings.Contains(strings.ToLower(part), "pack of") {
			return strings.TrimSpace(part)
		}
	}
	return ""
}
