package payload

// FieldReadable is implemented by opaque payload objects that expose named
// fields to single-level lookups.
type FieldReadable interface {
	ReadField(name string) (any, bool)
}

// Accessors exposes a fixed set of getters as a FieldReadable.
//
//	payload.Accessors{"color": func() any { return car.Color }}
type Accessors map[string]func() any

func (a Accessors) ReadField(name string) (any, bool) {
	get, ok := a[name]
	if !ok || get == nil {
		return nil, false
	}
	return get(), true
}
