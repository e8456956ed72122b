package structtag

import (
	"reflect"
	"testing"
)

type tagged struct {
	A string `carpet:"a,notnull" carpet-key:"k" carpet-value:"v,precision=10"`
	B string
}

func TestDefaultSourceTags(t *testing.T) {
	typ := reflect.TypeOf(tagged{})
	src := DefaultOptions().Source()

	fa, _ := typ.FieldByName("A")
	tag := src.Tags(fa)
	if tag.Carpet != "a,notnull" || tag.MapKey != "k" || tag.MapValue != "v,precision=10" {
		t.Errorf("tags = %+v", tag)
	}

	fb, _ := typ.FieldByName("B")
	if tag := src.Tags(fb); tag.Carpet != "" || tag.MapKey != "" || tag.MapValue != "" {
		t.Errorf("untagged field tags = %+v", tag)
	}
}

type staticSource struct{ tag Tag }

func (s staticSource) Tags(reflect.StructField) Tag { return s.tag }
func (staticSource) isSource()                      {}

func TestWithSource(t *testing.T) {
	want := Tag{Carpet: "renamed"}
	opts := DefaultOptions().Apply(WithSource(staticSource{tag: want}))
	got := opts.Source().Tags(reflect.StructField{})
	if got != want {
		t.Errorf("custom source tags = %+v", got)
	}
}
