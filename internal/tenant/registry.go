package tenant

import "sort"

// Registry es el mapping read-only de nombre de tenant a su configuración.
// Después de NewRegistry no se modifica, por lo que puede compartirse entre
// todos los workers sin sincronización.
type Registry struct {
	tenants map[string]Tenant
}

// NewRegistry construye un registry a partir de la lista de tenants.
// Valida cada tenant (longitudes, lifetime) y rechaza duplicados.
func NewRegistry(tenants []Tenant) (*Registry, error) {
	m := make(map[string]Tenant, len(tenants))
	for _, t := range tenants {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, dup := m[t.Name]; dup {
			return nil, errDuplicate(t.Name)
		}
		m[t.Name] = t
	}
	return &Registry{tenants: m}, nil
}

// ByName resuelve un tenant por nombre.
func (r *Registry) ByName(name string) (Tenant, bool) {
	t, ok := r.tenants[name]
	return t, ok
}

// Names retorna los nombres de todos los tenants, ordenados.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tenants))
	for name := range r.tenants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len retorna la cantidad de tenants registrados.
func (r *Registry) Len() int { return len(r.tenants) }

type errDuplicate string

func (e errDuplicate) Error() string { return "tenant: duplicate name: " + string(e) }
