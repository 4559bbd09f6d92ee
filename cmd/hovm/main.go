package main

import (
	"go.brendoncarroll.net/star"

	"hovm.run/hovm/hovmcmd"
)

func main() {
	star.Main(hovmcmd.Root())
}
