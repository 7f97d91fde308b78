// Package scene defines the scene graph produced by evaluating a scene
// script. The graph is an immutable DAG of objects, transforms and
// collections, plus the active camera.
package scene
