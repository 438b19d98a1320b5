package interpreters

import (
	"context"
	"testing"

	"github.com/Comcast/treetags/core"
)

func TestStandard(t *testing.T) {
	is := Standard()
	for _, name := range []string{"ecmascript", "ecmascript-ext", "ecmascript-isolated", "literal"} {
		if _, have := is.Find(name); !have {
			t.Fatal(name)
		}
	}
}

func TestLiteral(t *testing.T) {
	ctx := context.Background()
	a := core.Expr("x", "literal", map[string]interface{}{"n": 1})
	if err := a.Compile(ctx, Standard()); err != nil {
		t.Fatal(err)
	}
	x, err := a.Eval(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m, is := x.(map[string]interface{}); !is || m["n"] != 1 {
		t.Fatalf("%#v", x)
	}
}
