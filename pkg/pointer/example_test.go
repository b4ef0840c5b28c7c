package pointer_test

import (
	"fmt"

	"github.com/jsonviz/jsonviz/pkg/pointer"
)

func ExampleBuild() {
	p, _ := pointer.Build(pointer.Root, "users")
	p, _ = pointer.Build(p, "0")
	p, _ = pointer.Build(p, "home/dir")
	fmt.Println(p)
	// Output:
	// /users/0/home~1dir
}

func ExampleParse() {
	segs, _ := pointer.Parse("/a~1b/c~0d")
	fmt.Println(len(segs), segs[0], segs[1])
	// Output:
	// 2 a/b c~d
}
