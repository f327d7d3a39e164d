package pymodule

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "simple module", path: "foo/bar.py", want: "foo.bar"},
		{name: "top-level module", path: "main.py", want: "main"},
		{name: "init belongs to package", path: "foo/bar/__init__.py", want: "foo.bar"},
		{name: "stub file", path: "foo/baz.pyi", want: "foo.baz"},
		{name: "dot in stem", path: "foo/weird.name.py", wantErr: true},
		{name: "bad character", path: "foo/has-dash.py", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("FromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	for _, valid := range []string{"foo", "foo.bar", "foo_1.bar_2"} {
		if err := Validate(valid); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", ".foo", "foo.", "foo-bar", "foo/bar"} {
		if err := Validate(invalid); err == nil {
			t.Errorf("Validate(%q) = nil, want error", invalid)
		}
	}
}

func TestMinCover(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "ancestor covers descendants",
			input: []string{"foo.bar", "foo", "foo.bar.baz", "other"},
			want:  []string{"foo", "other"},
		},
		{
			name:  "siblings stay",
			input: []string{"foo.bar", "foo.baz"},
			want:  []string{"foo.bar", "foo.baz"},
		},
		{
			name:  "duplicates removed",
			input: []string{"foo", "foo"},
			want:  []string{"foo"},
		},
		{
			name:  "empty",
			input: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinCover(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MinCover(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// fakeLister serves a fixed package layout.
type fakeLister map[string][]string

func (f fakeLister) Children(pkg string) ([]string, error) {
	return f[pkg], nil
}

func TestCollapseSiblings_CompleteGroup(t *testing.T) {
	lister := fakeLister{
		"pkg": {"pkg.a", "pkg.b"},
	}

	got, err := CollapseSiblings([]string{"pkg.a", "pkg.b"}, lister)
	if err != nil {
		t.Fatalf("CollapseSiblings: %v", err)
	}
	want := []string{"pkg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollapseSiblings_IncompleteGroup(t *testing.T) {
	lister := fakeLister{
		"pkg": {"pkg.a", "pkg.b", "pkg.c"},
	}

	got, err := CollapseSiblings([]string{"pkg.a", "pkg.b"}, lister)
	if err != nil {
		t.Fatalf("CollapseSiblings: %v", err)
	}
	want := []string{"pkg.a", "pkg.b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollapseSiblings_FixedPoint(t *testing.T) {
	// Collapsing pkg.sub's children should then allow pkg itself to collapse.
	lister := fakeLister{
		"pkg":     {"pkg.sub", "pkg.top"},
		"pkg.sub": {"pkg.sub.a", "pkg.sub.b"},
	}

	got, err := CollapseSiblings([]string{"pkg.sub.a", "pkg.sub.b", "pkg.top"}, lister)
	if err != nil {
		t.Fatalf("CollapseSiblings: %v", err)
	}
	want := []string{"pkg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollapseSiblings_TopLevelUntouched(t *testing.T) {
	got, err := CollapseSiblings([]string{"alpha", "beta"}, fakeLister{})
	if err != nil {
		t.Fatalf("CollapseSiblings: %v", err)
	}
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTreeIndex_Children(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "pkg", "__init__.py"))
	mustWrite(t, filepath.Join(root, "pkg", "a.py"))
	mustWrite(t, filepath.Join(root, "pkg", "sub", "__init__.py"))
	mustWrite(t, filepath.Join(root, "pkg", "sub", "b.py"))
	mustWrite(t, filepath.Join(root, "pkg", "notapkg", "c.py")) // no __init__.py

	ix := &TreeIndex{Root: root}
	got, err := ix.Children("pkg")
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	want := []string{"pkg.a", "pkg.sub"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Children(pkg) = %v, want %v", got, want)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("pass\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}
