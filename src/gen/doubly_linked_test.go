package gen

import (
	"errors"
	"testing"
)

func newNode(s string) *GenericNodeDL {
	v := Generic(s)
	n := &GenericNodeDL{}
	n.Bind(&v)
	return n
}

func name(n *GenericNodeDL) string {
	return (*n.Value()).(string)
}

func TestBasics(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	basicHelper(t, &g)
}

func basicHelper(t *testing.T, g *GenericDoublyLinkedList) {
	t.Helper()

	if !g.Empty() {
		t.Errorf("doubly linked list not empty at start")
	}
	if 0 != g.Length() {
		t.Errorf("doubly linked list not empty at start")
	}
	if g.First() != nil {
		t.Errorf("doubly linked list not empty at start")
	}
	if g.Last() != nil {
		t.Errorf("doubly linked list not empty at start")
	}

	s1 := newNode("iansmith")
	s2 := newNode("love will tear us apart")
	s3 := newNode("the four ladies")

	g.AppendNode(s1)
	if g.Empty() {
		t.Errorf("doubly linked list failed empty test after append")
	}
	if 1 != g.Length() {
		t.Errorf("doubly linked list failed to update length() correct")
	}
	if s1 != g.First() || s1 != g.Last() {
		t.Errorf("doubly linked list First()/Last() error")
	}

	g.AppendNode(s2)
	if 2 != g.Length() {
		t.Errorf("doubly linked list failed to update length() after 2nd append")
	}
	if s1 != g.First() {
		t.Errorf("doubly linked list failed to update First() properly")
	}
	if s2 != g.Last() || s2 != g.First().Next() {
		t.Errorf("doubly linked list failed to update Last() properly")
	}

	g.PushNode(s3)
	if 3 != g.Length() {
		t.Errorf("doubly linked list failed to update Length() after 3rd (push)")
	}
	if s3 != g.First() {
		t.Errorf("doubly linked list failed to update First() correctly after 3rd (push)")
	}
	if s1 != g.First().Next() {
		t.Errorf("doubly linked list failed to update First().Next() correctly after 3rd (push)")
	}
	if s3 != g.Last().Prev().Prev() {
		t.Errorf("doubly linked list failed to update Last().Prev().Prev() correctly after 3rd (push)")
	}
	if nil != g.Last().Next() {
		t.Errorf("doubly linked list last is not last!")
	}
	if nil != g.First().Prev() {
		t.Errorf("doubly linked list first is not first!")
	}

	total := len(name(s1)) + len(name(s2)) + len(name(s3))
	count := 0
	g.TraverseGeneric(func(v *Generic) error {
		count += len((*v).(string))
		return nil
	})
	if total != count {
		t.Errorf("doubly linked list traversal test")
	}
}

func TestRemoveMiddleAndEnds(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	a, b, c := newNode("a"), newNode("b"), newNode("c")
	g.AppendNode(a)
	g.AppendNode(b)
	g.AppendNode(c)

	g.Remove(b)
	if g.Length() != 2 || a.Next() != c || c.Prev() != a {
		t.Errorf("middle removal did not splice neighbours")
	}
	if b.Owner() != nil || b.Next() != nil || b.Prev() != nil {
		t.Errorf("removed node still carries links")
	}
	g.Remove(a)
	if g.First() != c || c.Prev() != nil {
		t.Errorf("removing the head did not update First()")
	}
	g.Remove(c)
	if !g.Empty() {
		t.Errorf("list should be empty after removing every node")
	}
}

func TestInsertBeforeAndAfter(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	a, b, c, d := newNode("a"), newNode("b"), newNode("c"), newNode("d")
	g.AppendNode(b)
	g.InsertBefore(b, a) // new head
	g.InsertAfter(b, d)  // new tail
	g.InsertBefore(d, c) // middle

	want := []string{"a", "b", "c", "d"}
	var got []string
	g.TraverseGeneric(func(v *Generic) error {
		got = append(got, (*v).(string))
		return nil
	})
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if g.Nth(2) != c || g.Nth(4) != nil {
		t.Errorf("Nth returned the wrong node")
	}

	var back []string
	g.TraverseBackwardsGeneric(func(v *Generic) error {
		back = append(back, (*v).(string))
		return nil
	})
	if back[0] != "d" || back[3] != "a" {
		t.Errorf("backwards traversal out of order: %v", back)
	}
}

func TestTraversalStopsOnError(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	g.AppendNode(newNode("x"))
	g.AppendNode(newNode("y"))
	stop := errors.New("stop")
	seen := 0
	err := g.TraverseNodesGeneric(func(_ *GenericNodeDL) error {
		seen++
		return stop
	})
	if err != stop || seen != 1 {
		t.Errorf("traversal did not stop at first error")
	}
}

func TestDoubleInsertPanics(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	h := NewGenericDoublyLinkedList()
	n := newNode("twice")
	g.AppendNode(n)

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic inserting a node that is on another list")
		}
	}()
	h.AppendNode(n)
}

func TestRemoveFromWrongListPanics(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	h := NewGenericDoublyLinkedList()
	n := newNode("stray")
	g.AppendNode(n)

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic removing from a list that does not own the node")
		}
	}()
	h.Remove(n)
}

func TestPopAndDequeue(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	if g.Pop() != nil || g.Dequeue() != nil {
		t.Errorf("Pop/Dequeue of empty list should be nil")
	}
	a, b := newNode("a"), newNode("b")
	g.AppendNode(a)
	g.AppendNode(b)
	if g.Pop() != a || g.Dequeue() != b || !g.Empty() {
		t.Errorf("Pop/Dequeue removed the wrong nodes")
	}
}
