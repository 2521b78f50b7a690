package voice

// Route is a client-side application route.
type Route struct {
	Path        string `json:"path"`
	DisplayName string `json:"displayName"`
}

type section struct {
	route    Route
	keywords []string
}

// DefaultSections is the static section table of the web app.
var DefaultSections = []struct {
	Path, DisplayName string
	Keywords          []string
}{
	{"/", "Inicio", []string{"inicio", "home", "principal"}},
	{"/cook", "Cocinar", []string{"cocinar", "cook"}},
	{"/inventory", "Inventario", []string{"inventario", "despensa", "ingredientes"}},
	{"/recipes", "Recetas", []string{"recetas", "recetario"}},
	{"/plan", "Planificador", []string{"planificar", "plan", "planificador"}},
	{"/learn", "Aprender", []string{"aprender", "aprendizaje"}},
	{"/settings", "Ajustes", []string{"ajustes", "configuración", "configuracion"}},
	{"/appliances", "Electrodomésticos", []string{"electrodomésticos", "utensilios", "aparatos"}},
	{"/history", "Historial", []string{"historial"}},
}

// NavigationResolver maps free text to a section route.
type NavigationResolver struct {
	sections []section
}

// NewNavigationResolver builds a resolver over DefaultSections.
func NewNavigationResolver() *NavigationResolver {
	r := &NavigationResolver{}
	for _, s := range DefaultSections {
		r.sections = append(r.sections, section{
			route:    Route{Path: s.Path, DisplayName: s.DisplayName},
			keywords: foldAll(s.Keywords...),
		})
	}
	return r
}

// Resolve returns the section named in text. Keywords match whole words,
// ignoring case and accents. The longest matching keyword wins; ties go to
// the earlier section, so the result depends only on the text.
func (r *NavigationResolver) Resolve(text string) (*Route, bool) {
	pt := newPhraseText(text)
	var best *Route
	bestLen := 0
	for i := range r.sections {
		for _, kw := range r.sections[i].keywords {
			if len(kw) > bestLen && pt.has(kw) {
				route := r.sections[i].route
				best, bestLen = &route, len(kw)
			}
		}
	}
	return best, best != nil
}
