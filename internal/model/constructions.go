package model

// Construction contenido de nodo para una construcción (ej. pared de ladrillo)
type Construction struct {
	ID      string `json:"id"`
	Name    Name   `json:"name"`
	Unit    string `json:"unit"`
	Source  string `json:"source"`
	Comment Name   `json:"comment"`
	Layer   int    `json:"layer"`
	Locked  bool   `json:"locked"`
}

func (c *Construction) nodeKind() string { return "Construction" }

// ConstructionToProduct contenido de arista entre una construcción y un producto.
// Amount es el parámetro que perturba el análisis de sensibilidad.
type ConstructionToProduct struct {
	ID           string  `json:"id"`
	Amount       float64 `json:"amount"`
	Unit         string  `json:"unit"`
	Lifespan     int     `json:"lifespan"`
	Demolition   bool    `json:"demolition"`
	Enabled      bool    `json:"enabled"`
	DelayedStart int     `json:"delayed_start"`
}

func (c *ConstructionToProduct) edgeKind() string { return "ConstructionToProduct" }

// Name textos localizados usados en nombres y comentarios.
// Los idiomas vacíos no se serializan.
type Name struct {
	Danish  string `json:"Danish,omitempty"`
	English string `json:"English,omitempty"`
	German  string `json:"German,omitempty"`
}

// First devuelve el primer idioma con texto: danés, inglés, alemán
func (n Name) First() string {
	for _, s := range []string{n.Danish, n.English, n.German} {
		if s != "" {
			return s
		}
	}
	return ""
}
