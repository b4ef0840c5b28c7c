package pointer

import (
	"reflect"
	"testing"

	"github.com/jsonviz/jsonviz/pkg/errors"
)

func TestEncodeSegment(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a/b", "a~1b"},
		{"a~b", "a~0b"},
		{"~1", "~01"},
		{"/~", "~1~0"},
		{"a/b~c", "a~1b~0c"},
		{"~~//", "~0~0~1~1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := EncodeSegment(tt.raw); got != tt.want {
				t.Errorf("EncodeSegment(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeSegment(t *testing.T) {
	tests := []struct {
		enc  string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a~1b", "a/b"},
		{"a~0b", "a~b"},
		{"~01", "~1"},
		{"~1~0", "/~"},
	}

	for _, tt := range tests {
		t.Run(tt.enc, func(t *testing.T) {
			if got := DecodeSegment(tt.enc); got != tt.want {
				t.Errorf("DecodeSegment(%q) = %q, want %q", tt.enc, got, tt.want)
			}
		})
	}
}

func TestSegmentRoundTrip(t *testing.T) {
	keys := []string{"", "a", "a/b", "~", "~0", "~1", "/", "//", "~/~/", "héllo/wörld", " spaced key ", "0"}
	for _, k := range keys {
		if got := DecodeSegment(EncodeSegment(k)); got != k {
			t.Errorf("DecodeSegment(EncodeSegment(%q)) = %q", k, got)
		}
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		key    string
		want   string
	}{
		{"root parent", "/", "a", "/a"},
		{"nested", "/a", "b", "/a/b"},
		{"escaped key", "/a", "x/y", "/a/x~1y"},
		{"empty key under root", "/", "", "/"},
		{"empty key nested", "/a", "", "/a/"},
		{"index", "/items", "0", "/items/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.parent, tt.key)
			if err != nil {
				t.Fatalf("Build(%q, %q) error: %v", tt.parent, tt.key, err)
			}
			if got != tt.want {
				t.Errorf("Build(%q, %q) = %q, want %q", tt.parent, tt.key, got, tt.want)
			}
		})
	}
}

func TestBuild_InvalidParent(t *testing.T) {
	for _, parent := range []string{"", "a", "$root"} {
		_, err := Build(parent, "k")
		if err == nil {
			t.Errorf("Build(%q) expected error", parent)
			continue
		}
		if !errors.Is(err, errors.ErrCodeInvalidPointer) {
			t.Errorf("Build(%q) code = %q, want %q", parent, errors.GetCode(err), errors.ErrCodeInvalidPointer)
		}
	}
}

func TestMustBuild_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustBuild with invalid parent did not panic")
		}
	}()
	MustBuild("no-slash", "k")
}

func TestParse(t *testing.T) {
	tests := []struct {
		p    string
		want []string
	}{
		{"/", []string{}},
		{"//", []string{"", ""}},
		{"/a", []string{"a"}},
		{"/a/b", []string{"a", "b"}},
		{"/a~1b/c~0d", []string{"a/b", "c~d"}},
		{"/~01", []string{"~1"}},
		{"/a/", []string{"a", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.p, func(t *testing.T) {
			got, err := Parse(tt.p)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.p, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %q, want %q", tt.p, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, p := range []string{"", "a/b", "/a~", "/a~2", "/~x/b"} {
		if _, err := Parse(p); err == nil {
			t.Errorf("Parse(%q) expected error", p)
		} else if !errors.Is(err, errors.ErrCodeInvalidPointer) {
			t.Errorf("Parse(%q) code = %q", p, errors.GetCode(err))
		}
	}
}

func TestLast(t *testing.T) {
	tests := []struct {
		p      string
		want   string
		wantOK bool
	}{
		{"/", "", false},
		{"", "", false},
		{"/a", "a", true},
		{"/a/b~1c", "b/c", true},
		{"//", "", true},
	}

	for _, tt := range tests {
		got, ok := Last(tt.p)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Last(%q) = (%q, %v), want (%q, %v)", tt.p, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParent(t *testing.T) {
	tests := []struct {
		p      string
		want   string
		wantOK bool
	}{
		{"/", "", false},
		{"/a", "/", true},
		{"/a/b", "/a", true},
		{"/a/b~1c", "/a", true},
		{"//", "/", true},
	}

	for _, tt := range tests {
		got, ok := Parent(tt.p)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Parent(%q) = (%q, %v), want (%q, %v)", tt.p, got, ok, tt.want, tt.wantOK)
		}
	}
}

// Build, Parse and Last must agree for every parent/key pair.
func TestBuildParseLastAgree(t *testing.T) {
	parents := []string{"/", "/a", "/a~1b", "/x/0/y"}
	keys := []string{"k", "", "~", "/", "a/b~c", "12"}

	for _, parent := range parents {
		base, err := Parse(parent)
		if err != nil {
			t.Fatalf("Parse(%q): %v", parent, err)
		}
		for _, key := range keys {
			if parent == Root && key == "" {
				// "/" + "" collides with the root pointer itself.
				continue
			}
			p := MustBuild(parent, key)

			last, ok := Last(p)
			if !ok || last != key {
				t.Errorf("Last(Build(%q, %q)) = (%q, %v), want %q", parent, key, last, ok, key)
			}

			segs, err := Parse(p)
			if err != nil {
				t.Fatalf("Parse(%q): %v", p, err)
			}
			want := append(append([]string{}, base...), key)
			if !reflect.DeepEqual(segs, want) {
				t.Errorf("Parse(Build(%q, %q)) = %q, want %q", parent, key, segs, want)
			}

			if pp, ok := Parent(p); !ok || pp != parent {
				t.Errorf("Parent(%q) = (%q, %v), want %q", p, pp, ok, parent)
			}
		}
	}
}

func TestAppend(t *testing.T) {
	tests := []struct {
		parent, key, want string
	}{
		{"/", "", "//"},
		{"//", "", "///"},
		{"/a", "b", "/a/b"},
		{"/a", "x/y", "/a/x~1y"},
		{"/", "a", "//a"},
	}

	for _, tt := range tests {
		got := Append(tt.parent, tt.key)
		if got != tt.want {
			t.Errorf("Append(%q, %q) = %q, want %q", tt.parent, tt.key, got, tt.want)
		}
		if pp, ok := Parent(got); !ok || pp != tt.parent {
			t.Errorf("Parent(%q) = (%q, %v), want %q", got, pp, ok, tt.parent)
		}
		if last, ok := Last(got); !ok || last != tt.key {
			t.Errorf("Last(%q) = (%q, %v), want %q", got, last, ok, tt.key)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join(); got != Root {
		t.Errorf("Join() = %q, want %q", got, Root)
	}
	if got := Join("a", "b/c", "0"); got != "/a/b~1c/0" {
		t.Errorf("Join() = %q", got)
	}
}

func TestValid(t *testing.T) {
	if !Valid("/a~0b") {
		t.Error("Valid(/a~0b) = false")
	}
	if Valid("a") || Valid("/~") {
		t.Error("Valid accepted malformed pointer")
	}
}
