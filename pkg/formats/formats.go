// Package formats reads and writes host scene files: Wavefront OBJ scenes
// as a mesh provider, and OBJ or binary glTF as sinks for imported objects.
package formats
