package mesh

// Provider enumerates the objects of a host scene.
type Provider interface {
	Objects() ([]*Object, error)
}

// Sink accepts finished objects and links them into a host scene.
type Sink interface {
	Link(obj *Object) error
}

// Scene is an in-memory host scene. It is both a Provider and a Sink.
type Scene struct {
	objects []*Object
}

// NewScene returns a scene holding the given objects.
func NewScene(objs ...*Object) *Scene {
	return &Scene{objects: objs}
}

// Objects returns the objects in link order.
func (s *Scene) Objects() ([]*Object, error) {
	return s.objects, nil
}

// Link appends obj to the scene.
func (s *Scene) Link(obj *Object) error {
	s.objects = append(s.objects, obj)
	return nil
}

// Len returns the number of linked objects.
func (s *Scene) Len() int {
	return len(s.objects)
}

// Meshes returns only the mesh objects.
func (s *Scene) Meshes() []*Object {
	var out []*Object
	for _, o := range s.objects {
		if o.Kind == KindMesh {
			out = append(out, o)
		}
	}
	return out
}
