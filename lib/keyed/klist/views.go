package klist

import "github.com/ValentinKolb/kolist/lib/keyed"

// CreateView declares the projection of src through transform, optionally in
// reverse order. Views are not implemented yet; the call always fails with
// keyed.ErrNotImplemented and returns a nil view.
func CreateView[K comparable, V keyed.Keyed[K], TV any](src keyed.IKeyedList[K, V], transform func(V) TV, reverse bool) (keyed.IKeyedView[K, V, TV], error) {
	return nil, keyed.Errorf(keyed.RetCNotImplemented, "views over keyed lists are not implemented (reverse=%t)", reverse)
}

// CreateView is the method form of CreateView for untyped projections.
func (l *KeyedList[K, V]) CreateView(transform func(V) any, reverse bool) (keyed.IKeyedView[K, V, any], error) {
	return CreateView[K, V, any](l, transform, reverse)
}
