package cities

import (
	"github.com/vadimoyt/atlas-bot/internal/models"
)

// Registry неизменяемый справочник городов: отображаемое имя -> id upstream-API.
// Загружается один раз при старте из configs/cities.yaml.
type Registry struct {
	byName map[string]string
	order  []string
}

func NewRegistry(entries []models.City) *Registry {
	r := &Registry{byName: make(map[string]string, len(entries))}
	for _, c := range entries {
		if _, ok := r.byName[c.Name]; ok {
			continue
		}
		r.byName[c.Name] = c.ID
		r.order = append(r.order, c.Name)
	}
	return r
}

// Resolve возвращает идентификатор города для upstream-API
func (r *Registry) Resolve(name string) (string, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Names все известные города в порядке загрузки
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Others все города кроме указанного; варианты назначения после выбора отправления
func (r *Registry) Others(name string) []string {
	var out []string
	for _, n := range r.order {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
