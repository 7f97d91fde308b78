package sdfx

import (
	"math"
	"testing"
)

const testCells = 24

func TestBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box, testCells)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if mesh.VertexCount() == 0 {
		t.Fatal("expected non-zero vertex count")
	}
	// Welded: every vertex is shared by several triangles.
	if mesh.VertexCount() >= mesh.TriangleCount()*3 {
		t.Errorf("vertices %d not welded for %d triangles", mesh.VertexCount(), mesh.TriangleCount())
	}
	for i, f := range mesh.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= mesh.VertexCount() {
				t.Fatalf("face %d index %d out of range", i, vi)
			}
		}
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	cyl := k.Cylinder(50, 10)
	mesh, err := k.ToMesh(cyl, testCells)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
}

func TestSphere(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Sphere(1), testCells)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	for _, v := range mesh.Vertices {
		if r := v.Length(); math.Abs(r-1) > 0.1 {
			t.Fatalf("vertex %v at radius %f, want ~1", v, r)
		}
	}
}

func TestDifference(t *testing.T) {
	k := New()

	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box, testCells)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl := k.Cylinder(120, 20)
	diff := k.Difference(box, cyl)
	diffMesh, err := k.ToMesh(diff, testCells)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestUnionAndIntersection(t *testing.T) {
	k := New()
	box1 := k.Box(50, 50, 50)
	box2 := k.Translate(k.Box(50, 50, 50), 30, 0, 0)

	umin, umax := k.Union(box1, box2).BoundingBox()
	if math.Abs(umin[0]+25) > 0.01 || math.Abs(umax[0]-55) > 0.01 {
		t.Errorf("union x extent = [%f, %f], want [-25, 55]", umin[0], umax[0])
	}

	inter := k.Intersection(box1, box2)
	mesh, err := k.ToMesh(inter, testCells)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("intersection mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	translated := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	min, max := translated.BoundingBox()

	const tol = 0.5
	expectMin := [3]float64{95, 195, 295}
	expectMax := [3]float64{105, 205, 305}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestBoundingBox(t *testing.T) {
	k := New()
	min, max := k.Box(100, 50, 25).BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-50, -25, -12.5}
	expectMax := [3]float64{50, 25, 12.5}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestRotate(t *testing.T) {
	k := New()
	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	min, max := k.Rotate(k.Box(100, 10, 10), 0, 0, 90).BoundingBox()

	xExtent := max[0] - min[0]
	yExtent := max[1] - min[1]
	const tol = 1.0
	if math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}

func TestDefaultCells(t *testing.T) {
	k := &SdfxKernel{}
	mesh, err := k.ToMesh(k.Box(1, 1, 1), 0)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
}
