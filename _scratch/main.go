package main

import (
	"fmt"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func main() {
	text := "Smith, J.  2020  Machine Learning"
	pattern := []rune("sm20")

	slab := util.MakeSlab(100*1024, 2048)
	chars := util.ToChars([]byte(text))
	r, _ := algo.FuzzyMatchV2(false, false, true, &chars, pattern, false, slab)
	fmt.Printf("with slab:  %+v\n", r)

	chars2 := util.ToChars([]byte(text))
	r2, _ := algo.FuzzyMatchV2(false, false, true, &chars2, pattern, false, nil)
	fmt.Printf("nil slab:   %+v\n", r2)

	algo.Init("default")
	chars3 := util.ToChars([]byte(text))
	r3, _ := algo.FuzzyMatchV2(false, false, true, &chars3, pattern, false, slab)
	fmt.Printf("after Init: %+v\n", r3)
}
