package main

import "github.com/KarissaChan1/gamlss-curve-optimization/cmd"

func main() {
	cmd.Execute()
}
