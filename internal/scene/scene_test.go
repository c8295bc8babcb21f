package scene

import "testing"

func TestChildIsKeyed(t *testing.T) {
	root := NewNode("root", Group)
	a := root.Child("a", Rect)
	a.W = 10

	if again := root.Child("a", Rect); again != a {
		t.Error("Expected Child to return the existing node")
	}
	if root.Len() != 1 {
		t.Errorf("Expected 1 child, got %d", root.Len())
	}

	replaced := root.Child("a", Circle)
	if replaced == a || replaced.Kind != Circle {
		t.Error("Expected a child of another kind to be replaced")
	}
	if root.Len() != 1 {
		t.Errorf("Expected replacement in place, got %d children", root.Len())
	}
}

func TestJoin(t *testing.T) {
	root := NewNode("series", Group)
	first := root.Join([]string{"cpu", "mem", "disk"}, Path)
	cpu := first[0]

	second := root.Join([]string{"cpu", "net"}, Path)
	if len(second) != 2 || root.Len() != 2 {
		t.Fatalf("Expected 2 children after join, got %d", root.Len())
	}
	if second[0] != cpu {
		t.Error("Expected existing node to be updated in place")
	}
	if _, ok := root.Find("mem"); ok {
		t.Error("Expected stale node to be removed")
	}
	if n, ok := root.Find("net"); !ok || n != second[1] {
		t.Error("Expected new node to be appended")
	}
	children := root.Children()
	if children[0].Key != "cpu" || children[1].Key != "net" {
		t.Errorf("Expected [cpu net], got [%s %s]", children[0].Key, children[1].Key)
	}
}

func TestJoinDuplicateKeys(t *testing.T) {
	tests := []struct {
		keys     []string
		expected []string
	}{
		{[]string{"20", "20"}, []string{"20", "20#2"}},
		{[]string{"a", "b", "a", "a"}, []string{"a", "b", "a#2", "a#3"}},
		{[]string{"a", "a", "a#2"}, []string{"a", "a#3", "a#2"}},
	}

	for _, tt := range tests {
		root := NewNode("layer", Group)
		nodes := root.Join(tt.keys, Group)
		if len(nodes) != len(tt.expected) || root.Len() != len(tt.expected) {
			t.Fatalf("Expected %d distinct nodes, got %d returned and %d children", len(tt.expected), len(nodes), root.Len())
		}
		for i, n := range nodes {
			if n.Key != tt.expected[i] {
				t.Errorf("Expected key %q at %d, got %q", tt.expected[i], i, n.Key)
			}
		}

		again := root.Join(tt.keys, Group)
		for i := range again {
			if again[i] != nodes[i] {
				t.Errorf("Expected node %q to be kept on rejoin", nodes[i].Key)
			}
		}
	}
}

func TestRemoveRebuildsIndex(t *testing.T) {
	root := NewNode("root", Group)
	for _, k := range []string{"a", "b", "c"} {
		root.Child(k, Text)
	}
	if !root.Remove("a") {
		t.Fatal("Expected remove to succeed")
	}
	if root.Remove("a") {
		t.Error("Expected second remove to fail")
	}
	if c, ok := root.Find("c"); !ok || c.Key != "c" {
		t.Error("Expected lookup by key after removal")
	}
}

func TestLookupAndCount(t *testing.T) {
	s := New(100, 50)
	s.Root.Child("plot", Group).Child("series", Group).Child("cpu", Path)

	if n, ok := s.Root.Lookup("plot/series/cpu"); !ok || n.Kind != Path {
		t.Error("Expected to resolve nested key path")
	}
	if _, ok := s.Root.Lookup("plot/missing"); ok {
		t.Error("Expected missing path to fail")
	}
	if got := s.Root.Count(); got != 4 {
		t.Errorf("Expected 4 nodes, got %d", got)
	}
}

func TestDumpIsStable(t *testing.T) {
	build := func() *Node {
		root := NewNode("root", Group)
		r := root.Child("bar", Rect)
		r.X, r.Y, r.W, r.H = 1, 2, 3, 4
		r.Style.Fill = "#ff0000"
		p := root.Child("line", Path)
		p.Commands = Polyline([][]Point{{{0, 0}, {10, 5}}})
		return root
	}
	if build().String() != build().String() {
		t.Error("Expected identical trees to dump identically")
	}

	changed := build()
	changed.Children()[0].Opacity = 0
	if changed.String() == build().String() {
		t.Error("Expected opacity change to show in the dump")
	}
}

func TestPolylineBreaksRuns(t *testing.T) {
	cmds := Polyline([][]Point{{{0, 0}, {1, 1}}, {{3, 3}, {4, 4}}})
	got := FormatCommands(cmds)
	want := "M0,0 L1,1 M3,3 L4,4"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSmooth(t *testing.T) {
	cmds := Smooth([][]Point{{{0, 0}, {10, 10}, {20, 0}}})
	got := FormatCommands(cmds)
	want := "M0,0 L5,5 Q10,10 15,5 L20,0"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	short := FormatCommands(Smooth([][]Point{{{0, 0}, {1, 1}}}))
	if short != "M0,0 L1,1" {
		t.Errorf("Expected short runs to stay straight, got %q", short)
	}
}
